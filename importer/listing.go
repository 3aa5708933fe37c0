package importer

import (
	"context"
	"slices"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"okvars/state"
	"okvars/store"
)

type collectionInfo struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	DefaultModeID string `yaml:"default_mode_id" json:"default_mode_id"`
}

// Collections lists store collections.
func Collections(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	return collections(ctx, env, destination(cmd, 0, env.Log.Named("collections")))
}

func collections(ctx context.Context, env *state.LocalEnv, dst string) error {
	s, err := env.Store()
	if err != nil {
		return err
	}
	cols, err := s.Collections(ctx)
	if err != nil {
		return err
	}

	out := make([]collectionInfo, 0, len(cols))
	for _, c := range cols {
		out = append(out, collectionInfo{ID: c.ID, Name: c.Name, DefaultModeID: c.DefaultModeID})
	}
	return writeReport(env, dst, "collections", out)
}

type variableInfo struct {
	Name       string            `yaml:"name" json:"name"`
	ID         string            `yaml:"id" json:"id"`
	Collection string            `yaml:"collection" json:"collection"`
	Kind       store.ValueKind   `yaml:"kind" json:"kind"`
	Values     map[string]string `yaml:"values,omitempty" json:"values,omitempty"` // mode name -> hex
}

// List prints store variables in natural order of their names.
func List(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	return list(ctx, env, destination(cmd, 0, env.Log.Named("list")))
}

func list(ctx context.Context, env *state.LocalEnv, dst string) error {
	s, err := env.Store()
	if err != nil {
		return err
	}
	cols, err := s.Collections(ctx)
	if err != nil {
		return err
	}
	vars, err := s.Variables(ctx)
	if err != nil {
		return err
	}

	colNames := make(map[string]string, len(cols))
	modeNames := make(map[string]string)
	for _, c := range cols {
		colNames[c.ID] = c.Name
		for _, m := range c.Modes {
			modeNames[m.ID] = m.Name
		}
	}

	out := make([]variableInfo, 0, len(vars))
	for _, v := range vars {
		info := variableInfo{Name: v.Name, ID: v.ID, Collection: colNames[v.CollectionID], Kind: v.Kind}
		if len(v.Values) > 0 {
			info.Values = make(map[string]string, len(v.Values))
			for mode, val := range v.Values {
				name, ok := modeNames[mode]
				if !ok {
					name = mode
				}
				info.Values[name] = val.Hex()
			}
		}
		out = append(out, info)
	}
	// color/sky/50 goes before color/sky/100
	slices.SortStableFunc(out, func(a, b variableInfo) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})

	env.Log.Debug("Listing variables", zap.Int("count", len(out)))
	return writeReport(env, dst, "variables", out)
}
