// Package importer implements program commands: it reads stylesheets, runs
// extraction and reconciliation and writes reports.
package importer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"okvars/css"
	"okvars/reconcile"
	"okvars/state"
)

const msgNothingFound = "No valid --color-name-number: oklch() variables found in the CSS file"

// extract loads source and scans it for tokens. Malformed tokens and ignored
// custom properties are reported as warnings.
func extract(env *state.LocalEnv, name string, log *zap.Logger) (*css.Extraction, error) {
	src, err := readSource(env, name)
	if err != nil {
		return nil, err
	}

	res := css.NewExtractor(env.Log).Extract(src.data, src.name)
	for _, decl := range res.Ignored {
		log.Warn("Custom property does not follow --color-name-number: oklch() format, skipping", zap.String("declaration", decl))
	}
	for _, c := range res.Candidates {
		if !c.Valid() {
			log.Warn("Invalid color token", zap.String("variable", c.Variable), zap.String("oklch", c.OKLCHString()), zap.String("error", c.Error))
		}
	}
	return res, nil
}

func destination(cmd *cli.Command, pos int, log *zap.Logger) string {
	if cmd.Args().Len() > pos+1 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[pos+1:]))
	}
	return cmd.Args().Get(pos)
}

func started(log *zap.Logger, fields ...zap.Field) func() {
	log.Info("Processing starting", fields...)
	start := time.Now()
	return func() {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}
}

// Parse extracts tokens and reports what apply would do without touching the store.
func Parse(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("parse")

	env.CodePage = inputCodePage(cmd, env, log)
	src, dst := cmd.Args().Get(0), destination(cmd, 1, log)

	defer started(log, zap.String("source", src), zap.String("destination", dst))()
	return parse(ctx, env, src, dst, log)
}

func parse(ctx context.Context, env *state.LocalEnv, src, dst string, log *zap.Logger) error {
	res, err := extract(env, src, log)
	if err != nil {
		return err
	}
	if len(res.Candidates) == 0 {
		log.Warn(msgNothingFound, zap.String("source", src))
	}

	s, err := env.Store()
	if err != nil {
		return err
	}
	report, err := reconcile.New(s, env.Log).Validate(ctx, res.Candidates)
	if err != nil {
		return err
	}
	log.Info("Validation completed",
		zap.Int("found", report.TotalFound), zap.Int("valid", len(report.Valid)), zap.Int("invalid", len(report.Invalid)))

	return writeReport(env, dst, "validation", report)
}

// Options of creation pass.
type applyOptions struct {
	collectionID  string
	newCollection string
	only          []string
}

func (o *applyOptions) target() (*reconcile.Target, error) {
	switch {
	case len(o.collectionID) != 0 && len(o.newCollection) != 0:
		return nil, errors.New("--collection and --new-collection are mutually exclusive")
	case len(o.newCollection) != 0:
		return reconcile.NewCollection(o.newCollection), nil
	case len(o.collectionID) != 0:
		return reconcile.ExistingCollection(o.collectionID), nil
	}
	return nil, nil
}

// Apply creates or updates store variables for every valid token.
func Apply(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("apply")

	env.CodePage = inputCodePage(cmd, env, log)
	src, dst := cmd.Args().Get(0), destination(cmd, 1, log)

	opts := applyOptions{
		collectionID:  cmd.String("collection"),
		newCollection: cmd.String("new-collection"),
		only:          cmd.StringSlice("only"),
	}
	if len(opts.collectionID) == 0 && len(opts.newCollection) == 0 {
		opts.collectionID = env.Cfg.Store.Collection
	}

	defer started(log, zap.String("source", src), zap.String("destination", dst))()
	return apply(ctx, env, src, dst, &opts, log)
}

func apply(ctx context.Context, env *state.LocalEnv, src, dst string, opts *applyOptions, log *zap.Logger) error {
	target, err := opts.target()
	if err != nil {
		return err
	}

	res, err := extract(env, src, log)
	if err != nil {
		return err
	}
	if len(res.Candidates) == 0 {
		log.Warn(msgNothingFound, zap.String("source", src))
		return nil
	}

	s, err := env.Store()
	if err != nil {
		return err
	}
	r := reconcile.New(s, env.Log)

	report, err := r.Validate(ctx, res.Candidates)
	if err != nil {
		return err
	}

	items := reconcile.Select(report.Valid, opts.only)
	for _, name := range opts.only {
		if !slices.ContainsFunc(items, func(it reconcile.Item) bool { return it.Variable == name }) {
			log.Warn("Requested variable is not among valid tokens, skipping", zap.String("variable", name))
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	outcome, err := r.Apply(ctx, target, items)
	if err != nil {
		return fmt.Errorf("unable to apply tokens: %w", err)
	}
	return writeReport(env, dst, "outcome", outcome)
}
