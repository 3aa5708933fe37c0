package store

import (
	"fmt"

	"okvars/common"
)

// Open creates store of requested kind. Path is ignored for memory store.
func Open(kind common.StoreKind, path string) (Store, error) {
	switch kind {
	case common.StoreKindMemory:
		return NewMemory(nil), nil
	case common.StoreKindYAML:
		return OpenYAMLFile(path)
	case common.StoreKindSQLite:
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("unsupported store kind %q", kind)
}
