package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"okvars/common"
	"okvars/config"
	"okvars/importer"
	"okvars/misc"
	"okvars/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		if data, err := config.Dump(env.Cfg); err == nil {
			name := "config/actual.yaml"
			if len(configFile) > 0 {
				name = "config/" + filepath.Base(configFile)
			}
			env.Rpt.StoreData(name, data)
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Format = env.Cfg.Output.Format
	if cmd.IsSet("format") {
		if env.Format, err = common.ParseOutputFmt(cmd.String("format")); err != nil {
			return ctx, err
		}
	}

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if er := env.CloseStore(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close store: %w", er))
	}

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if er := env.Rpt.Close(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Subcommands return regular errors instead of cli.Exit(), they are logged
// once here and turned into exit code in main.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	if log := state.EnvFromContext(ctx).Log; log != nil {
		log.Warn("Unknown command, nothing to do", zap.String("command", name))
	}
}

var encodingFlag = &cli.StringFlag{Name: "encoding", Aliases: []string{"e"},
	Usage: "read SOURCE in character set `ENCODING` (see IANA.org for character set names), overrides configuration"}

const sourceHelp = `
SOURCE:
    stylesheet to read tokens from, "-" for STDIN. Every occurrence of
        --color-<family>-<shade>: oklch(L C H [/ A])
    becomes variable "color/<family>/<shade>", family is lowercase latin, shade is decimal.
`

func main() {
	// allow graceful shutdown on interrupt
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "imports OKLCH color tokens from stylesheets into variable store",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, DefaultText: "from configuration",
				Usage: "report `FORMAT` (supported: " + strings.Join(common.OutputFmtNames(), ", ") + ")"},
		},
		Commands: []*cli.Command{
			{
				Name:         "parse",
				Usage:        "Extracts color tokens and reports what apply would do, store is not modified",
				OnUsageError: usageErrorHandler,
				Action:       importer.Parse,
				Flags:        []cli.Flag{encodingFlag},
				ArgsUsage:    "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s%s
DESTINATION:
    file to write validation report to, if absent - STDOUT
`, cli.CommandHelpTemplate, sourceHelp),
			},
			{
				Name:         "apply",
				Usage:        "Creates or updates store variables for every valid color token",
				OnUsageError: usageErrorHandler,
				Action:       importer.Apply,
				Flags: []cli.Flag{
					encodingFlag,
					&cli.StringFlag{Name: "collection", Usage: "put variables into existing collection with `ID`"},
					&cli.StringFlag{Name: "new-collection", Usage: "create collection `NAME` and put variables there"},
					&cli.StringSliceFlag{Name: "only", Usage: "process only variable `NAME` (may be repeated)"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s%s
DESTINATION:
    file to write creation report to, if absent - STDOUT

When neither --collection nor --new-collection is given, store.collection
from configuration is used. Variables are processed in ascending order of
names, failure of a single variable does not stop processing.
`, cli.CommandHelpTemplate, sourceHelp),
			},
			{
				Name:         "collections",
				Usage:        "Lists store collections",
				OnUsageError: usageErrorHandler,
				Action:       importer.Collections,
				ArgsUsage:    "[DESTINATION]",
			},
			{
				Name:         "list",
				Usage:        "Lists store variables with their values",
				OnUsageError: usageErrorHandler,
				Action:       importer.List,
				ArgsUsage:    "[DESTINATION]",
			},
			{
				Name:         "swatch",
				Usage:        "Renders valid color tokens as an image",
				OnUsageError: usageErrorHandler,
				Action:       importer.Swatch,
				Flags: []cli.Flag{
					encodingFlag,
					&cli.IntFlag{Name: "columns", Usage: "maximum `NUMBER` of cells in a row, overrides configuration"},
				},
				ArgsUsage: "SOURCE DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s%s
DESTINATION:
    image file name, format is selected by extension (png, jpg, gif, tif, bmp),
    "-" writes PNG to STDOUT
`, cli.CommandHelpTemplate, sourceHelp),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			// log is either not set yet (argument parsing) or already closed
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}
