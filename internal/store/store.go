// Package store exports catalogs to SQLite and reads them back, so a
// converted dump can be queried with SQL or reopened without reparsing.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/phobologic/dumpschema/internal/model"
)

// ErrNotFound is returned when a named structure is not in the store.
var ErrNotFound = errors.New("structure not found")

// Store manages one catalog database file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating parent directories
// and initializing the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// statFields names each counter in model.Stats for the run_stats table.
func statFields(st *model.Stats) []struct {
	key string
	ptr *int
} {
	return []struct {
		key string
		ptr *int
	}{
		{"documents", &st.Documents},
		{"failed", &st.Failed},
		{"lines", &st.Lines},
		{"classes", &st.Classes},
		{"structs", &st.Structs},
		{"members", &st.Members},
		{"rejected", &st.Rejected},
		{"empty", &st.Empty},
		{"unterminated", &st.Unterminated},
		{"padding", &st.Padding},
		{"unmatched", &st.Unmatched},
		{"anomalies", &st.Anomalies},
		{"errors", &st.Errors},
		{"warnings", &st.Warnings},
	}
}

// Save replaces the store's contents with cat in a single transaction.
func (s *Store) Save(cat *model.Catalog) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"members", "structures", "run_stats", "failures"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	structStmt, err := tx.Prepare(`
		INSERT INTO structures (name, parent, kind, size, document)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare structure insert: %w", err)
	}
	defer structStmt.Close()

	memberStmt, err := tx.Prepare(`
		INSERT INTO members (structure_id, position, name, type, byte_offset, byte_size)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare member insert: %w", err)
	}
	defer memberStmt.Close()

	for i := range cat.Structures {
		st := &cat.Structures[i]
		res, err := structStmt.Exec(st.Name, st.Parent, string(st.Kind), int64(st.Size), st.Document)
		if err != nil {
			return fmt.Errorf("insert structure %s: %w", st.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("structure id %s: %w", st.Name, err)
		}
		for pos, m := range st.Members {
			if _, err := memberStmt.Exec(id, pos, m.Name, m.Type, int64(m.Offset), int64(m.Size)); err != nil {
				return fmt.Errorf("insert member %s.%s: %w", st.Name, m.Name, err)
			}
		}
	}

	stats := cat.Stats
	for _, f := range statFields(&stats) {
		if _, err := tx.Exec("INSERT INTO run_stats (key, value) VALUES (?, ?)", f.key, *f.ptr); err != nil {
			return fmt.Errorf("insert stat %s: %w", f.key, err)
		}
	}

	for _, f := range cat.Failures {
		if _, err := tx.Exec("INSERT INTO failures (document, error) VALUES (?, ?)", f.Document, f.Err.Error()); err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Document, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the whole catalog back in saved order.
func (s *Store) Load() (*model.Catalog, error) {
	structures, err := s.queryStructures("SELECT id, name, parent, kind, size, document FROM structures ORDER BY id")
	if err != nil {
		return nil, err
	}

	cat := &model.Catalog{Structures: structures}

	rows, err := s.db.Query("SELECT key, value FROM run_stats")
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()
	values := make(map[string]int)
	for rows.Next() {
		var key string
		var value int
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	for _, f := range statFields(&cat.Stats) {
		*f.ptr = values[f.key]
	}

	frows, err := s.db.Query("SELECT document, error FROM failures ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var doc, msg string
		if err := frows.Scan(&doc, &msg); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		cat.Failures = append(cat.Failures, model.Failure{Document: doc, Err: errors.New(msg)})
	}
	if err := frows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}

	return cat, nil
}

// Structure returns the first saved structure with the given name.
func (s *Store) Structure(name string) (*model.Structure, error) {
	structures, err := s.queryStructures(
		"SELECT id, name, parent, kind, size, document FROM structures WHERE name = ? ORDER BY id LIMIT 1", name)
	if err != nil {
		return nil, err
	}
	if len(structures) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &structures[0], nil
}

// Children returns the names of structures whose parent is name.
func (s *Store) Children(name string) ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM structures WHERE parent = ? ORDER BY name", name)
	if err != nil {
		return nil, fmt.Errorf("query children %s: %w", name, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return names, nil
}

// queryStructures runs a structures query and attaches each row's members.
func (s *Store) queryStructures(query string, args ...any) ([]model.Structure, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query structures: %w", err)
	}

	var (
		ids        []int64
		structures []model.Structure
	)
	for rows.Next() {
		var (
			id   int64
			kind string
			size int64
			st   model.Structure
		)
		if err := rows.Scan(&id, &st.Name, &st.Parent, &kind, &size, &st.Document); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan structure: %w", err)
		}
		st.Kind = model.Kind(kind)
		st.Size = uint64(size)
		st.Members = []model.Member{}
		ids = append(ids, id)
		structures = append(structures, st)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate structures: %w", err)
	}
	rows.Close()

	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	if len(ids) == 1 {
		members, err := s.members("WHERE structure_id = ?", ids[0])
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			structures[0].Members = append(structures[0].Members, m.member)
		}
		return structures, nil
	}
	if len(ids) == 0 {
		return structures, nil
	}

	members, err := s.members("")
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if i, ok := index[m.structureID]; ok {
			structures[i].Members = append(structures[i].Members, m.member)
		}
	}
	return structures, nil
}

type memberRow struct {
	structureID int64
	member      model.Member
}

func (s *Store) members(where string, args ...any) ([]memberRow, error) {
	rows, err := s.db.Query(
		"SELECT structure_id, name, type, byte_offset, byte_size FROM members "+where+" ORDER BY structure_id, position", args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var out []memberRow
	for rows.Next() {
		var (
			r            memberRow
			offset, size int64
		)
		if err := rows.Scan(&r.structureID, &r.member.Name, &r.member.Type, &offset, &size); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		r.member.Offset = uint64(offset)
		r.member.Size = uint64(size)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}
