package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"

	"okvars/oklch"
)

// YAMLFile keeps store content in a single YAML document which is rewritten
// after every successful mutation.
type YAMLFile struct {
	*Memory
	path string
}

// OpenYAMLFile loads store from path. Missing file means empty store, it
// will be created on first mutation.
func OpenYAMLFile(path string) (*YAMLFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &YAMLFile{Memory: NewMemory(nil), path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}

	var snap Snapshot
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&snap); err != nil {
			return nil, fmt.Errorf("parsing store %q: %w", path, err)
		}
		if snap.Version != snapshotVersion {
			return nil, fmt.Errorf("store %q has unsupported version %d", path, snap.Version)
		}
	}
	return &YAMLFile{Memory: NewMemory(&snap), path: path}, nil
}

func (f *YAMLFile) CreateCollection(ctx context.Context, name string) (*Collection, error) {
	c, err := f.Memory.CreateCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	return c, f.save()
}

func (f *YAMLFile) CreateVariable(ctx context.Context, name, collectionID string, kind ValueKind) (*Variable, error) {
	v, err := f.Memory.CreateVariable(ctx, name, collectionID, kind)
	if err != nil {
		return nil, err
	}
	return v, f.save()
}

func (f *YAMLFile) SetValue(ctx context.Context, variableID, modeID string, value oklch.RGBA) error {
	if err := f.Memory.SetValue(ctx, variableID, modeID, value); err != nil {
		return err
	}
	return f.save()
}

// save replaces store file atomically.
func (f *YAMLFile) save() error {
	snap := f.Snapshot()
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}
