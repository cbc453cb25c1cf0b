package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/store/migrations"
)

// SQLiteStore keeps catalog entries in a single-file SQLite database,
// one JSON document per row. It serves single-host deployments that
// have no MongoDB available; dotted filter keys are answered with
// json_extract over the document column.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path and brings
// its schema up to date. path can be ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring sqlite: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Find(ctx context.Context, filter dmp.Filter) ([]*model.FileRecord, error) {
	where, args := whereClause(filter)
	rows, err := s.db.QueryContext(ctx, "SELECT doc FROM entries"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	recs := []*model.FileRecord{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		rec := &model.FileRecord{}
		if err := json.Unmarshal([]byte(doc), rec); err != nil {
			return nil, fmt.Errorf("decoding entry: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return recs, nil
}

func (s *SQLiteStore) FindOne(ctx context.Context, filter dmp.Filter) (*model.FileRecord, error) {
	where, args := whereClause(filter)
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM entries"+where+" LIMIT 1", args...).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying entry: %w", err)
	}
	rec := &model.FileRecord{}
	if err := json.Unmarshal([]byte(doc), rec); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec *model.FileRecord) (string, error) {
	stored := rec.Clone()
	stored.ID = uuid.NewString()

	doc, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("encoding entry: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO entries (id, user_id, doc) VALUES (?, ?, ?)",
		stored.ID, stored.UserID, string(doc)); err != nil {
		return "", fmt.Errorf("inserting entry: %w", err)
	}
	return stored.ID, nil
}

// Update merges the named top-level fields into every matching
// document. Documents are merged in Go rather than with json_set so
// composite values (meta_data) replace wholesale, matching the
// last-write-wins contract of the other backends.
func (s *SQLiteStore) Update(ctx context.Context, filter dmp.Filter, fields map[string]any) error {
	where, args := whereClause(filter)
	rows, err := s.db.QueryContext(ctx, "SELECT id, doc FROM entries"+where, args...)
	if err != nil {
		return fmt.Errorf("querying entries for update: %w", err)
	}

	type pending struct {
		id  string
		doc string
	}
	var updates []pending
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			rows.Close()
			return fmt.Errorf("scanning entry for update: %w", err)
		}
		merged, err := mergeDoc(doc, fields)
		if err != nil {
			rows.Close()
			return err
		}
		updates = append(updates, pending{id: id, doc: merged})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating entries for update: %w", err)
	}
	rows.Close()

	for _, u := range updates {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE entries SET doc = ?, user_id = json_extract(?, '$.user_id') WHERE id = ?",
			u.doc, u.doc, u.id); err != nil {
			return fmt.Errorf("updating entry %s: %w", u.id, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, filter dmp.Filter) error {
	where, args := whereClause(filter)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries"+where, args...); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	return nil
}

// EnsureIndexes is a no-op: the schema migration creates the
// expression indexes alongside the table.
func (s *SQLiteStore) EnsureIndexes(context.Context) error { return nil }

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

// whereClause renders a filter as a WHERE fragment plus bind args.
// Keys are sorted so the generated SQL is stable.
func whereClause(filter dmp.Filter) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		switch k {
		case dmp.FieldID:
			preds = append(preds, "id = ?")
		case dmp.FieldUserID:
			preds = append(preds, "user_id = ?")
		default:
			preds = append(preds, fmt.Sprintf("json_extract(doc, '$.%s') = ?", k))
		}
		args = append(args, bindValue(filter[k]))
	}
	return " WHERE " + strings.Join(preds, " AND "), args
}

// bindValue folds named-string types into kinds the sqlite driver binds.
func bindValue(v any) any {
	switch x := v.(type) {
	case model.PathType:
		return string(x)
	case model.Compression:
		return string(x)
	}
	return v
}

// mergeDoc merges update fields into a stored JSON document.
func mergeDoc(doc string, fields map[string]any) (string, error) {
	m := map[string]any{}
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return "", fmt.Errorf("decoding entry for update: %w", err)
	}
	for k, v := range fields {
		m[k] = v
	}
	out, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding merged entry: %w", err)
	}
	return string(out), nil
}

var _ dmp.EntryStore = (*SQLiteStore)(nil)
