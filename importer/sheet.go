package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"okvars/config"
	"okvars/css"
	"okvars/oklch"
	"okvars/state"
	"okvars/swatch"
)

// Swatch renders valid tokens of the source as an image.
func Swatch(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("swatch")

	env.CodePage = inputCodePage(cmd, env, log)
	src, dst := cmd.Args().Get(0), destination(cmd, 1, log)

	opts := sheetOptions(env.Cfg)
	if cmd.IsSet("columns") {
		opts.Columns = cmd.Int("columns")
	}

	defer started(log, zap.String("source", src), zap.String("destination", dst))()
	return renderSheet(env, src, dst, opts, log)
}

func renderSheet(env *state.LocalEnv, src, dst string, opts swatch.Options, log *zap.Logger) error {
	if len(dst) == 0 {
		return errors.New("no destination image has been specified")
	}

	res, err := extract(env, src, log)
	if err != nil {
		return err
	}
	cells := cellsOf(res.Candidates, log)
	if len(cells) == 0 {
		log.Warn(msgNothingFound, zap.String("source", src))
		return nil
	}

	img, err := swatch.Render(cells, opts)
	if err != nil {
		return err
	}
	if dst == StdinName {
		if err := swatch.Encode(stdout, img); err != nil {
			return fmt.Errorf("unable to write swatch sheet: %w", err)
		}
		log.Info("Swatch sheet created", zap.Int("colors", len(cells)), zap.String("file", "STDOUT"))
		return nil
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if err := swatch.Save(img, dst); err != nil {
		return err
	}
	env.Rpt.Store("swatch"+filepath.Ext(dst), dst)
	log.Info("Swatch sheet created", zap.Int("colors", len(cells)), zap.String("file", dst))
	return nil
}

func cellsOf(candidates []css.Candidate, log *zap.Logger) []swatch.Cell {
	cells := make([]swatch.Cell, 0, len(candidates))
	for _, c := range candidates {
		if !c.Valid() {
			continue
		}
		rgba, err := oklch.ToRGB(*c.OKLCH)
		if err != nil {
			log.Warn("Color conversion failed", zap.String("variable", c.Variable), zap.Error(err))
			continue
		}
		cells = append(cells, swatch.Cell{Group: c.Family, Label: c.Family + "/" + c.Shade, Color: rgba})
	}
	return cells
}

func sheetOptions(cfg *config.Config) swatch.Options {
	return swatch.Options{Columns: cfg.Swatch.Columns, CellSize: cfg.Swatch.CellSize}
}
