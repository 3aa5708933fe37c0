package reconcile

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"okvars/css"
	"okvars/oklch"
	"okvars/store"
)

var (
	ErrNoCollection       = errors.New("no collection selected")
	ErrCollectionNotFound = errors.New("selected collection not found")
)

const msgConversionFailed = "Color conversion failed"

// Target selects collection receiving new variables. Either ID of an existing
// collection or Name of a collection to be created when IsNew is set.
type Target struct {
	ID    string
	Name  string
	IsNew bool
}

// ExistingCollection targets collection with given id.
func ExistingCollection(id string) *Target {
	return &Target{ID: id}
}

// NewCollection targets collection which is created at the start of creation pass.
func NewCollection(name string) *Target {
	return &Target{Name: name, IsNew: true}
}

// Entry is the outcome of processing a single item.
type Entry struct {
	Variable   string `yaml:"variable" json:"variable"`
	OKLCH      string `yaml:"oklch" json:"oklch"`
	FinalColor string `yaml:"final_color,omitempty" json:"final_color,omitempty"`
	Error      string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Summary counts creation pass outcomes.
type Summary struct {
	Created int `yaml:"created" json:"created"`
	Updated int `yaml:"updated" json:"updated"`
	Failed  int `yaml:"failed" json:"failed"`
	Total   int `yaml:"total" json:"total"`
}

func (s Summary) String() string {
	return fmt.Sprintf("Created: %d, Updated: %d, Failed: %d", s.Created, s.Updated, s.Failed)
}

// Outcome is the creation pass report.
type Outcome struct {
	Collection *store.Collection `yaml:"collection" json:"collection"`
	Created    []Entry           `yaml:"created" json:"created"`
	Updated    []Entry           `yaml:"updated" json:"updated"`
	Failed     []Entry           `yaml:"failed" json:"failed"`
	Summary    Summary           `yaml:"summary" json:"summary"`
}

// Reconciler runs validation and creation passes against a store.
type Reconciler struct {
	store store.Store
	log   *zap.Logger
}

// New creates reconciler working with s.
func New(s store.Store, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: s, log: log.Named("reconcile")}
}

// Names returns set of variable names currently present in the store.
func (r *Reconciler) Names(ctx context.Context) (map[string]bool, error) {
	vars, err := r.store.Variables(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list variables: %w", err)
	}
	names := make(map[string]bool, len(vars))
	for _, v := range vars {
		names[v.Name] = true
	}
	return names, nil
}

// Validate is a dry run against current store content.
func (r *Reconciler) Validate(ctx context.Context, candidates []css.Candidate) (*Validation, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}
	res := Validate(candidates, names)
	r.log.Debug("Validation completed",
		zap.Int("found", res.TotalFound), zap.Int("valid", len(res.Valid)), zap.Int("invalid", len(res.Invalid)))
	return res, nil
}

// resolve makes sure target collection is available.
func (r *Reconciler) resolve(ctx context.Context, t *Target) (*store.Collection, error) {
	switch {
	case t == nil || (!t.IsNew && t.ID == ""):
		return nil, ErrNoCollection
	case t.IsNew:
		c, err := r.store.CreateCollection(ctx, t.Name)
		if err != nil {
			return nil, fmt.Errorf("unable to create collection %q: %w", t.Name, err)
		}
		r.log.Info("Collection created", zap.String("name", c.Name), zap.String("id", c.ID))
		return c, nil
	}

	c, err := r.store.CollectionByID(ctx, t.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, t.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to get collection %q: %w", t.ID, err)
	}
	return c, nil
}

// Apply creates or updates a variable for every item. Items are processed in
// ascending order of variable names, caller slice is left intact. Failures are
// recorded per item, only unresolvable target aborts the pass.
func (r *Reconciler) Apply(ctx context.Context, t *Target, items []Item) (*Outcome, error) {
	if t == nil || (!t.IsNew && t.ID == "") {
		return nil, ErrNoCollection
	}

	// new collection is created only after the listing succeeded
	vars, err := r.store.Variables(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list variables: %w", err)
	}
	index := make(map[string]string, len(vars))
	for _, v := range vars {
		index[v.Name] = v.ID
	}

	col, err := r.resolve(ctx, t)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int { return cmp.Compare(a.Variable, b.Variable) })

	out := &Outcome{
		Collection: col,
		Created:    []Entry{},
		Updated:    []Entry{},
		Failed:     []Entry{},
		Summary:    Summary{Total: len(items)},
	}

	for _, it := range sorted {
		entry := Entry{Variable: it.Variable, OKLCH: it.OKLCHString}

		rgba, err := oklch.ToRGB(it.OKLCH)
		if err != nil {
			r.log.Warn(msgConversionFailed, zap.String("variable", it.Variable), zap.Error(err))
			entry.Error = msgConversionFailed
			out.Failed = append(out.Failed, entry)
			continue
		}

		created, err := r.upsert(ctx, index, col, it.Variable, rgba)
		if err != nil {
			r.log.Warn("Unable to store variable", zap.String("variable", it.Variable), zap.Error(err))
			entry.Error = err.Error()
			out.Failed = append(out.Failed, entry)
			continue
		}

		entry.FinalColor = rgba.Hex()
		if created {
			r.log.Debug("Variable created", zap.String("variable", it.Variable), zap.String("color", entry.FinalColor))
			out.Created = append(out.Created, entry)
		} else {
			r.log.Debug("Variable updated", zap.String("variable", it.Variable), zap.String("color", entry.FinalColor))
			out.Updated = append(out.Updated, entry)
		}
	}

	out.Summary.Created = len(out.Created)
	out.Summary.Updated = len(out.Updated)
	out.Summary.Failed = len(out.Failed)

	r.log.Info("Creation pass completed", zap.String("collection", col.Name), zap.Stringer("summary", out.Summary))
	return out, nil
}

// upsert stores value under name, creating variable when index does not know
// it yet. Every variable the store returns is added to index.
func (r *Reconciler) upsert(ctx context.Context, index map[string]string, col *store.Collection, name string, value oklch.RGBA) (bool, error) {
	id, ok := index[name]
	if !ok {
		v, err := r.store.CreateVariable(ctx, name, col.ID, store.KindColor)
		if v != nil {
			// store may keep the variable and still report an error
			index[name] = v.ID
		}
		if err != nil {
			return false, fmt.Errorf("unable to create variable: %w", err)
		}
		id = v.ID
	}
	if err := r.store.SetValue(ctx, id, col.DefaultModeID, value); err != nil {
		return false, fmt.Errorf("unable to set value: %w", err)
	}
	return !ok, nil
}
