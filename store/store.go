// Package store defines named variable storage used as reconciliation target
// and its backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"okvars/oklch"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("variable with this name already exists")
	ErrModeMismatch = errors.New("mode does not belong to variable collection")
	ErrKindMismatch = errors.New("value does not match variable kind")
)

// ValueKind is declared type of variable values.
type ValueKind string

const KindColor ValueKind = "COLOR"

// Mode is a configuration axis of a collection, every variable in the
// collection has a value per mode.
type Mode struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Collection groups variables.
type Collection struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	DefaultModeID string `yaml:"default_mode_id" json:"default_mode_id"`
	Modes         []Mode `yaml:"modes" json:"modes"`
}

// HasMode reports whether mode with given id belongs to the collection.
func (c *Collection) HasMode(id string) bool {
	for _, m := range c.Modes {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Variable is a named store entry. Names are unique across the store.
type Variable struct {
	ID           string                `yaml:"id" json:"id"`
	Name         string                `yaml:"name" json:"name"`
	CollectionID string                `yaml:"collection_id" json:"collection_id"`
	Kind         ValueKind             `yaml:"kind" json:"kind"`
	Values       map[string]oklch.RGBA `yaml:"values,omitempty" json:"values,omitempty"` // by mode id
}

// Store is the capability set reconciliation needs. Any implementation
// providing it is substitutable.
type Store interface {
	// Collections lists all collections.
	Collections(ctx context.Context) ([]Collection, error)
	// Variables lists all variables of all collections.
	Variables(ctx context.Context) ([]Variable, error)
	// CollectionByID returns ErrNotFound when there is no such collection.
	CollectionByID(ctx context.Context, id string) (*Collection, error)
	// CreateCollection creates collection with a single default mode.
	CreateCollection(ctx context.Context, name string) (*Collection, error)
	// CreateVariable creates variable without values.
	CreateVariable(ctx context.Context, name, collectionID string, kind ValueKind) (*Variable, error)
	// SetValue sets variable value for given mode.
	SetValue(ctx context.Context, variableID, modeID string, value oklch.RGBA) error
	Close() error
}

// defaultModeName mirrors what design tools name the initial mode.
const defaultModeName = "Mode 1"

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	return id.String(), nil
}

// newCollection prepares collection record with fresh ids.
func newCollection(name string) (*Collection, error) {
	if name == "" {
		return nil, errors.New("collection name must not be empty")
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	modeID, err := newID()
	if err != nil {
		return nil, err
	}
	return &Collection{
		ID:            id,
		Name:          name,
		DefaultModeID: modeID,
		Modes:         []Mode{{ID: modeID, Name: defaultModeName}},
	}, nil
}
