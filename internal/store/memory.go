package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
)

// MemoryStore is an in-memory EntryStore. It backs the "memory" store
// type and the test suite, standing in for a real document collection
// the way mongomock did for the original deployment. Safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*model.FileRecord
	order   []string // insertion order, for stable Find results
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*model.FileRecord)}
}

func (m *MemoryStore) Find(_ context.Context, filter dmp.Filter) ([]*model.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*model.FileRecord{}
	for _, id := range m.order {
		rec := m.entries[id]
		if matches(rec, filter) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) FindOne(_ context.Context, filter dmp.Filter) (*model.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		rec := m.entries[id]
		if matches(rec, filter) {
			return rec.Clone(), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Insert(_ context.Context, rec *model.FileRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := rec.Clone()
	stored.ID = uuid.NewString()
	m.entries[stored.ID] = stored
	m.order = append(m.order, stored.ID)
	return stored.ID, nil
}

func (m *MemoryStore) Update(_ context.Context, filter dmp.Filter, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		rec := m.entries[id]
		if !matches(rec, filter) {
			continue
		}
		if err := applyFields(rec, fields); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, filter dmp.Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	for _, id := range m.order {
		if matches(m.entries[id], filter) {
			delete(m.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return nil
}

// EnsureIndexes is a no-op: map lookups need no indexes.
func (m *MemoryStore) EnsureIndexes(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }

// matches reports whether the record satisfies every constraint in the
// filter (conjunction of exact matches).
func matches(rec *model.FileRecord, filter dmp.Filter) bool {
	for key, want := range filter {
		got, ok := fieldValue(rec, key)
		if !ok || normalize(got) != normalize(want) {
			return false
		}
	}
	return true
}

// fieldValue resolves a document key, dotted keys reaching into
// meta_data, against the record.
func fieldValue(rec *model.FileRecord, key string) (any, bool) {
	if sub, ok := strings.CutPrefix(key, dmp.FieldMetaData+"."); ok {
		return rec.Meta(sub)
	}
	switch key {
	case dmp.FieldID:
		return rec.ID, true
	case dmp.FieldUserID:
		return rec.UserID, true
	case dmp.FieldFilePath:
		return rec.FilePath, true
	case dmp.FieldPathType:
		return string(rec.PathType), true
	case dmp.FieldFileType:
		return rec.FileType, true
	case dmp.FieldSize:
		return rec.Size, true
	case dmp.FieldParentDir:
		return rec.ParentDir, true
	case dmp.FieldDataType:
		return rec.DataType, true
	case dmp.FieldTaxonID:
		return rec.TaxonID, true
	case dmp.FieldCompressed:
		return string(rec.Compressed), true
	}
	return nil, false
}

// normalize folds the numeric and named-string types that reach the
// store into comparable canonical forms.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	case model.PathType:
		return string(x)
	case model.Compression:
		return string(x)
	}
	return v
}

// applyFields merges named top-level fields into the record, last
// write wins per field.
func applyFields(rec *model.FileRecord, fields map[string]any) error {
	for key, value := range fields {
		switch key {
		case dmp.FieldUserID:
			rec.UserID = fmt.Sprint(value)
		case dmp.FieldFilePath:
			rec.FilePath = fmt.Sprint(value)
		case dmp.FieldPathType:
			rec.PathType = model.PathType(fmt.Sprint(value))
		case dmp.FieldFileType:
			rec.FileType = fmt.Sprint(value)
		case dmp.FieldSize:
			n, ok := normalize(value).(int64)
			if !ok {
				return fmt.Errorf("field %s requires an integer, got %T", key, value)
			}
			rec.Size = n
		case dmp.FieldParentDir:
			rec.ParentDir = fmt.Sprint(value)
		case dmp.FieldDataType:
			rec.DataType = fmt.Sprint(value)
		case dmp.FieldTaxonID:
			n, ok := normalize(value).(int64)
			if !ok {
				return fmt.Errorf("field %s requires an integer, got %T", key, value)
			}
			rec.TaxonID = n
		case dmp.FieldCompressed:
			rec.Compressed = model.Compression(fmt.Sprint(value))
		case dmp.FieldSourceID:
			src, ok := value.([]string)
			if !ok {
				return fmt.Errorf("field %s requires []string, got %T", key, value)
			}
			rec.SourceID = append([]string(nil), src...)
		case dmp.FieldMetaData:
			meta, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("field %s requires map[string]any, got %T", key, value)
			}
			copied := make(map[string]any, len(meta))
			for k, v := range meta {
				copied[k] = v
			}
			rec.MetaData = copied
		default:
			return fmt.Errorf("unknown field in update: %s", key)
		}
	}
	return nil
}

var _ dmp.EntryStore = (*MemoryStore)(nil)
