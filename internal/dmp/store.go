package dmp

import (
	"context"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
)

// Document keys understood by every EntryStore backend. Filters and
// partial updates address records by these names.
const (
	FieldID         = "_id"
	FieldUserID     = "user_id"
	FieldFilePath   = "file_path"
	FieldPathType   = "path_type"
	FieldFileType   = "file_type"
	FieldSize       = "size"
	FieldParentDir  = "parent_dir"
	FieldDataType   = "data_type"
	FieldTaxonID    = "taxon_id"
	FieldCompressed = "compressed"
	FieldSourceID   = "source_id"
	FieldMetaData   = "meta_data"
)

// Filter is a conjunction of exact-match constraints over document
// keys. Dotted keys ("meta_data.assembly") reach into nested fields.
type Filter map[string]any

// EntryStore provides access to the document collection holding the
// file records. Implementations must serialize concurrent writes to
// the same record; no multi-call atomicity is assumed by the service.
type EntryStore interface {
	// Find returns every record matching the filter.
	Find(ctx context.Context, filter Filter) ([]*model.FileRecord, error)

	// FindOne returns a single matching record, or nil when nothing matches.
	FindOne(ctx context.Context, filter Filter) (*model.FileRecord, error)

	// Insert stores the record, assigns its id and returns it. The
	// store is the only writer of record ids.
	Insert(ctx context.Context, rec *model.FileRecord) (string, error)

	// Update merges the named top-level fields into every matching record.
	Update(ctx context.Context, filter Filter, fields map[string]any) error

	// Delete removes every matching record.
	Delete(ctx context.Context, filter Filter) error

	// EnsureIndexes creates the lookup indexes the catalog queries rely on.
	EnsureIndexes(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
