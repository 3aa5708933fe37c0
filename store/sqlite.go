package store

import (
	"context"
	"fmt"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"okvars/oklch"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	default_mode_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS modes (
	id            TEXT PRIMARY KEY,
	collection_id TEXT NOT NULL REFERENCES collections(id),
	name          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS variables (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	collection_id TEXT NOT NULL REFERENCES collections(id),
	kind          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS variable_values (
	variable_id TEXT NOT NULL REFERENCES variables(id),
	mode_id     TEXT NOT NULL REFERENCES modes(id),
	r REAL NOT NULL,
	g REAL NOT NULL,
	b REAL NOT NULL,
	a REAL NOT NULL,
	PRIMARY KEY (variable_id, mode_id)
);
`

// SQLite keeps store in a sqlite database file.
// Single connection is shared and access is serialized.
type SQLite struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// OpenSQLite opens (creating if necessary) database at path. Use ":memory:"
// for a transient database.
func OpenSQLite(path string) (*SQLite, error) {
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate}
	if path == ":memory:" {
		flags = append(flags, sqlite.OpenMemory)
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	// pragma has no effect inside transaction and script runs in one
	if err := sqlitex.ExecuteTransient(conn, `PRAGMA foreign_keys = ON;`, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prepare database schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// lock serializes access and arranges for long running statements to be
// interrupted when ctx is done.
func (s *SQLite) lock(ctx context.Context) func() {
	s.mu.Lock()
	old := s.conn.SetInterrupt(ctx.Done())
	return func() {
		s.conn.SetInterrupt(old)
		s.mu.Unlock()
	}
}

func (s *SQLite) Collections(ctx context.Context) ([]Collection, error) {
	defer s.lock(ctx)()
	return s.collections(`SELECT id, name, default_mode_id FROM collections ORDER BY rowid`)
}

func (s *SQLite) CollectionByID(ctx context.Context, id string) (*Collection, error) {
	defer s.lock(ctx)()

	cs, err := s.collections(`SELECT id, name, default_mode_id FROM collections WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("collection %q: %w", id, ErrNotFound)
	}
	return &cs[0], nil
}

// collections must be called under lock.
func (s *SQLite) collections(query string, args ...any) ([]Collection, error) {
	var out []Collection
	err := sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Collection{
				ID:            stmt.ColumnText(0),
				Name:          stmt.ColumnText(1),
				DefaultModeID: stmt.ColumnText(2),
			})
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}

	for i := range out {
		err := sqlitex.Execute(s.conn, `SELECT id, name FROM modes WHERE collection_id = ? ORDER BY rowid`,
			&sqlitex.ExecOptions{
				Args: []any{out[i].ID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					out[i].Modes = append(out[i].Modes, Mode{ID: stmt.ColumnText(0), Name: stmt.ColumnText(1)})
					return nil
				}})
		if err != nil {
			return nil, fmt.Errorf("query modes: %w", err)
		}
	}
	return out, nil
}

func (s *SQLite) Variables(ctx context.Context) ([]Variable, error) {
	defer s.lock(ctx)()

	var (
		out   []Variable
		index = make(map[string]int)
	)
	err := sqlitex.Execute(s.conn, `SELECT id, name, collection_id, kind FROM variables ORDER BY rowid`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			index[stmt.ColumnText(0)] = len(out)
			out = append(out, Variable{
				ID:           stmt.ColumnText(0),
				Name:         stmt.ColumnText(1),
				CollectionID: stmt.ColumnText(2),
				Kind:         ValueKind(stmt.ColumnText(3)),
			})
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("query variables: %w", err)
	}

	err = sqlitex.Execute(s.conn, `SELECT variable_id, mode_id, r, g, b, a FROM variable_values`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			i, ok := index[stmt.ColumnText(0)]
			if !ok {
				return nil
			}
			if out[i].Values == nil {
				out[i].Values = make(map[string]oklch.RGBA)
			}
			out[i].Values[stmt.ColumnText(1)] = oklch.RGBA{
				R: stmt.ColumnFloat(2),
				G: stmt.ColumnFloat(3),
				B: stmt.ColumnFloat(4),
				A: stmt.ColumnFloat(5),
			}
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("query variable values: %w", err)
	}
	return out, nil
}

func (s *SQLite) CreateCollection(ctx context.Context, name string) (c *Collection, err error) {
	if c, err = newCollection(name); err != nil {
		return nil, err
	}

	defer s.lock(ctx)()
	defer sqlitex.Save(s.conn)(&err)

	if err = sqlitex.Execute(s.conn, `INSERT INTO collections (id, name, default_mode_id) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{c.ID, c.Name, c.DefaultModeID}}); err != nil {
		return nil, fmt.Errorf("insert collection: %w", err)
	}
	for _, m := range c.Modes {
		if err = sqlitex.Execute(s.conn, `INSERT INTO modes (id, collection_id, name) VALUES (?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{m.ID, c.ID, m.Name}}); err != nil {
			return nil, fmt.Errorf("insert mode: %w", err)
		}
	}
	return c, nil
}

func (s *SQLite) CreateVariable(ctx context.Context, name, collectionID string, kind ValueKind) (*Variable, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	defer s.lock(ctx)()

	var exists, known bool
	err = sqlitex.Execute(s.conn, `SELECT
		EXISTS (SELECT 1 FROM variables WHERE name = ?),
		EXISTS (SELECT 1 FROM collections WHERE id = ?)`,
		&sqlitex.ExecOptions{
			Args: []any{name, collectionID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				exists, known = stmt.ColumnInt(0) != 0, stmt.ColumnInt(1) != 0
				return nil
			}})
	if err != nil {
		return nil, fmt.Errorf("query variable: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("collection %q: %w", collectionID, ErrNotFound)
	}
	if exists {
		return nil, fmt.Errorf("%q: %w", name, ErrDuplicate)
	}

	if err := sqlitex.Execute(s.conn, `INSERT INTO variables (id, name, collection_id, kind) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{id, name, collectionID, string(kind)}}); err != nil {
		return nil, fmt.Errorf("insert variable: %w", err)
	}
	return &Variable{ID: id, Name: name, CollectionID: collectionID, Kind: kind}, nil
}

func (s *SQLite) SetValue(ctx context.Context, variableID, modeID string, value oklch.RGBA) error {
	defer s.lock(ctx)()

	var (
		found     bool
		name      string
		kind      ValueKind
		modeMatch bool
	)
	err := sqlitex.Execute(s.conn, `SELECT v.name, v.kind,
		EXISTS (SELECT 1 FROM modes m WHERE m.id = ? AND m.collection_id = v.collection_id)
		FROM variables v WHERE v.id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{modeID, variableID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				name, kind, modeMatch = stmt.ColumnText(0), ValueKind(stmt.ColumnText(1)), stmt.ColumnInt(2) != 0
				return nil
			}})
	if err != nil {
		return fmt.Errorf("query variable: %w", err)
	}
	switch {
	case !found:
		return fmt.Errorf("variable %q: %w", variableID, ErrNotFound)
	case kind != KindColor:
		return fmt.Errorf("variable %q of kind %s: %w", name, kind, ErrKindMismatch)
	case !modeMatch:
		return fmt.Errorf("variable %q, mode %q: %w", name, modeID, ErrModeMismatch)
	}

	err = sqlitex.Execute(s.conn, `INSERT INTO variable_values (variable_id, mode_id, r, g, b, a) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (variable_id, mode_id) DO UPDATE SET r = excluded.r, g = excluded.g, b = excluded.b, a = excluded.a`,
		&sqlitex.ExecOptions{Args: []any{variableID, modeID, value.R, value.G, value.B, value.A}})
	if err != nil {
		return fmt.Errorf("store value: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
