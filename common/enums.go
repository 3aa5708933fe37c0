// Package common keeps enumerations shared between configuration and
// program packages.
package common

import (
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// StoreKind selects variable store backend.
type StoreKind string

const (
	StoreKindMemory StoreKind = "memory"
	StoreKindYAML   StoreKind = "yaml"
	StoreKindSQLite StoreKind = "sqlite"
)

// Persistent reports whether store content survives program exit.
func (k StoreKind) Persistent() bool {
	return k == StoreKindYAML || k == StoreKindSQLite
}

func (k StoreKind) String() string {
	return string(k)
}

// ParseStoreKind converts name to StoreKind, case insensitive.
func ParseStoreKind(name string) (StoreKind, error) {
	switch k := StoreKind(strings.ToLower(name)); k {
	case StoreKindMemory, StoreKindYAML, StoreKindSQLite:
		return k, nil
	}
	return "", fmt.Errorf("%q is not a valid store kind (%s)", name, strings.Join(StoreKindNames(), ", "))
}

func StoreKindNames() []string {
	return []string{string(StoreKindMemory), string(StoreKindYAML), string(StoreKindSQLite)}
}

// UnmarshalYAML accepts store kind names in any case.
func (k *StoreKind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	kind, err := ParseStoreKind(name)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// OutputFmt selects report serialization.
type OutputFmt string

const (
	OutputFmtYAML OutputFmt = "yaml"
	OutputFmtJSON OutputFmt = "json"
)

func (o OutputFmt) String() string {
	return string(o)
}

// ParseOutputFmt converts name to OutputFmt, case insensitive.
func ParseOutputFmt(name string) (OutputFmt, error) {
	switch o := OutputFmt(strings.ToLower(name)); o {
	case OutputFmtYAML, OutputFmtJSON:
		return o, nil
	}
	return "", fmt.Errorf("%q is not a valid output format (%s)", name, strings.Join(OutputFmtNames(), ", "))
}

func OutputFmtNames() []string {
	return []string{string(OutputFmtYAML), string(OutputFmtJSON)}
}

func (o *OutputFmt) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	format, err := ParseOutputFmt(name)
	if err != nil {
		return err
	}
	*o = format
	return nil
}
