package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"okvars/oklch"
)

// Snapshot is complete store content.
type Snapshot struct {
	Version     int          `yaml:"version" json:"version"`
	Collections []Collection `yaml:"collections" json:"collections"`
	Variables   []Variable   `yaml:"variables" json:"variables"`
}

const snapshotVersion = 1

// Memory keeps everything in process memory. Used directly in tests and as
// working state of file backed store.
type Memory struct {
	mu   sync.Mutex
	data Snapshot
}

// NewMemory creates store initialized with a copy of snapshot, which may be nil.
func NewMemory(snap *Snapshot) *Memory {
	m := &Memory{data: Snapshot{Version: snapshotVersion}}
	if snap != nil {
		m.data = cloneSnapshot(snap)
		m.data.Version = snapshotVersion
	}
	return m
}

// Snapshot returns deep copy of current content.
func (m *Memory) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSnapshot(&m.data)
}

func (m *Memory) Collections(_ context.Context) ([]Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Collection, 0, len(m.data.Collections))
	for i := range m.data.Collections {
		out = append(out, cloneCollection(&m.data.Collections[i]))
	}
	return out, nil
}

func (m *Memory) Variables(_ context.Context) ([]Variable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Variable, 0, len(m.data.Variables))
	for i := range m.data.Variables {
		out = append(out, cloneVariable(&m.data.Variables[i]))
	}
	return out, nil
}

func (m *Memory) CollectionByID(_ context.Context, id string) (*Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(id)
	if c == nil {
		return nil, fmt.Errorf("collection %q: %w", id, ErrNotFound)
	}
	res := cloneCollection(c)
	return &res, nil
}

func (m *Memory) CreateCollection(_ context.Context, name string) (*Collection, error) {
	c, err := newCollection(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.Collections = append(m.data.Collections, cloneCollection(c))
	return c, nil
}

func (m *Memory) CreateVariable(_ context.Context, name, collectionID string, kind ValueKind) (*Variable, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collection(collectionID) == nil {
		return nil, fmt.Errorf("collection %q: %w", collectionID, ErrNotFound)
	}
	if slices.ContainsFunc(m.data.Variables, func(v Variable) bool { return v.Name == name }) {
		return nil, fmt.Errorf("%q: %w", name, ErrDuplicate)
	}

	v := Variable{ID: id, Name: name, CollectionID: collectionID, Kind: kind}
	m.data.Variables = append(m.data.Variables, v)
	return &v, nil
}

func (m *Memory) SetValue(_ context.Context, variableID, modeID string, value oklch.RGBA) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.data.Variables, func(v Variable) bool { return v.ID == variableID })
	if idx < 0 {
		return fmt.Errorf("variable %q: %w", variableID, ErrNotFound)
	}
	v := &m.data.Variables[idx]
	if v.Kind != KindColor {
		return fmt.Errorf("variable %q of kind %s: %w", v.Name, v.Kind, ErrKindMismatch)
	}
	if c := m.collection(v.CollectionID); c == nil || !c.HasMode(modeID) {
		return fmt.Errorf("variable %q, mode %q: %w", v.Name, modeID, ErrModeMismatch)
	}
	if v.Values == nil {
		v.Values = make(map[string]oklch.RGBA)
	}
	v.Values[modeID] = value
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// collection must be called under lock.
func (m *Memory) collection(id string) *Collection {
	for i := range m.data.Collections {
		if m.data.Collections[i].ID == id {
			return &m.data.Collections[i]
		}
	}
	return nil
}

func cloneCollection(c *Collection) Collection {
	res := *c
	res.Modes = slices.Clone(c.Modes)
	return res
}

func cloneVariable(v *Variable) Variable {
	res := *v
	if v.Values != nil {
		res.Values = maps.Clone(v.Values)
	}
	return res
}

func cloneSnapshot(s *Snapshot) Snapshot {
	res := Snapshot{Version: s.Version}
	for i := range s.Collections {
		res.Collections = append(res.Collections, cloneCollection(&s.Collections[i]))
	}
	for i := range s.Variables {
		res.Variables = append(res.Variables, cloneVariable(&s.Variables[i]))
	}
	return res
}
