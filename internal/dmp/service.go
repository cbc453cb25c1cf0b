package dmp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
)

// DefaultRetention is the window added to a new record's creation time
// to produce its advisory expiration_date.
const DefaultRetention = 84 * 24 * time.Hour

// Service is the catalog API. It orchestrates registration, lookup,
// lineage and metadata edits over an EntryStore, running every
// candidate record through Validate before any mutation reaches the
// store. All operations are tenant-scoped by user id.
type Service struct {
	store     EntryStore
	logger    Logger
	clock     Clock
	retention time.Duration
}

// NewService creates a Service with the provided dependencies.
// A nil logger discards output and a nil clock uses real time;
// a non-positive retention falls back to DefaultRetention.
func NewService(store EntryStore, logger Logger, clock Clock, retention time.Duration) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{store: store, logger: logger, clock: clock, retention: retention}
}

// RegisterInput describes a candidate file record. The id, creation
// time and expiration date are assigned by the service and the store.
type RegisterInput struct {
	UserID     string
	FilePath   string
	PathType   model.PathType
	FileType   string
	Size       int64
	ParentDir  string
	DataType   string
	TaxonID    int64
	Compressed model.Compression
	SourceID   []string
	MetaData   map[string]any
}

// Register validates the candidate record and, on acceptance, inserts
// it and returns the new file id. On rejection nothing is written.
func (s *Service) Register(ctx context.Context, input RegisterInput) (string, error) {
	now := s.clock.Now().UTC()

	meta := make(map[string]any, len(input.MetaData)+1)
	for k, v := range input.MetaData {
		meta[k] = v
	}
	if _, ok := meta[model.MetaKeyExpiration]; !ok {
		meta[model.MetaKeyExpiration] = now.Add(s.retention).Format(time.RFC3339)
	}

	rec := &model.FileRecord{
		UserID:       input.UserID,
		FilePath:     input.FilePath,
		PathType:     input.PathType,
		FileType:     input.FileType,
		Size:         input.Size,
		ParentDir:    input.ParentDir,
		DataType:     input.DataType,
		TaxonID:      input.TaxonID,
		Compressed:   input.Compressed,
		SourceID:     append([]string{}, input.SourceID...),
		MetaData:     meta,
		CreationTime: now,
	}

	if err := Validate(rec); err != nil {
		return "", err
	}

	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("inserting file record: %w", err)
	}

	s.logger.Info("file registered",
		"user_id", rec.UserID, "file_id", id, "file_type", rec.FileType, "file_path", rec.FilePath)
	return id, nil
}

// GetByID returns the record for fileID, or nil when no record with
// that id exists for the given user. A missing id is not an error.
func (s *Service) GetByID(ctx context.Context, userID, fileID string) (*model.FileRecord, error) {
	rec, err := s.store.FindOne(ctx, Filter{FieldID: fileID, FieldUserID: userID})
	if err != nil {
		return nil, fmt.Errorf("fetching file %s: %w", fileID, err)
	}
	return rec, nil
}

// Attribute names a record field usable with FilesBy.
type Attribute string

const (
	AttrFileType Attribute = "file_type"
	AttrDataType Attribute = "data_type"
	AttrTaxonID  Attribute = "taxon_id"
	AttrAssembly Attribute = "assembly"
	AttrFilePath Attribute = "file_path"
)

var attrFilterKeys = map[Attribute]string{
	AttrFileType: FieldFileType,
	AttrDataType: FieldDataType,
	AttrTaxonID:  FieldTaxonID,
	AttrAssembly: FieldMetaData + "." + model.MetaKeyAssembly,
	AttrFilePath: FieldFilePath,
}

// FilesBy returns the user's records whose attribute equals value.
// In summary mode the file_path field is suppressed in the results.
func (s *Service) FilesBy(ctx context.Context, userID string, attr Attribute, value any, summary bool) ([]*model.FileRecord, error) {
	key, ok := attrFilterKeys[attr]
	if !ok {
		return nil, fmt.Errorf("unknown attribute: %s", attr)
	}
	recs, err := s.store.Find(ctx, Filter{FieldUserID: userID, key: value})
	if err != nil {
		return nil, fmt.Errorf("fetching files by %s: %w", attr, err)
	}
	if summary {
		for _, r := range recs {
			r.FilePath = ""
		}
	}
	return recs, nil
}

// FilesByUser returns every record the user owns.
func (s *Service) FilesByUser(ctx context.Context, userID string, summary bool) ([]*model.FileRecord, error) {
	recs, err := s.store.Find(ctx, Filter{FieldUserID: userID})
	if err != nil {
		return nil, fmt.Errorf("fetching files for user %s: %w", userID, err)
	}
	if summary {
		for _, r := range recs {
			r.FilePath = ""
		}
	}
	return recs, nil
}

// Per-attribute lookups kept for callers that know what they want.

func (s *Service) FilesByType(ctx context.Context, userID, fileType string) ([]*model.FileRecord, error) {
	return s.FilesBy(ctx, userID, AttrFileType, fileType, false)
}

func (s *Service) FilesByDataType(ctx context.Context, userID, dataType string) ([]*model.FileRecord, error) {
	return s.FilesBy(ctx, userID, AttrDataType, dataType, false)
}

func (s *Service) FilesByTaxon(ctx context.Context, userID string, taxonID int64) ([]*model.FileRecord, error) {
	return s.FilesBy(ctx, userID, AttrTaxonID, taxonID, false)
}

func (s *Service) FilesByAssembly(ctx context.Context, userID, assembly string) ([]*model.FileRecord, error) {
	return s.FilesBy(ctx, userID, AttrAssembly, assembly, false)
}

func (s *Service) FilesByPath(ctx context.Context, userID, filePath string) ([]*model.FileRecord, error) {
	return s.FilesBy(ctx, userID, AttrFilePath, filePath, false)
}

// AddMetadata merges one key into the record's meta_data, re-validates
// the full resulting record, and persists only if it is still valid.
// Returns ErrNotFound when the record does not exist for the user.
func (s *Service) AddMetadata(ctx context.Context, userID, fileID, key string, value any) error {
	rec, err := s.GetByID(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}

	updated := rec.Clone()
	if updated.MetaData == nil {
		updated.MetaData = make(map[string]any, 1)
	}
	updated.MetaData[key] = value

	if err := Validate(updated); err != nil {
		return err
	}
	if err := s.store.Update(ctx, Filter{FieldID: fileID, FieldUserID: userID},
		map[string]any{FieldMetaData: updated.MetaData}); err != nil {
		return fmt.Errorf("updating meta data for %s: %w", fileID, err)
	}

	s.logger.Info("meta data added", "user_id", userID, "file_id", fileID, "key", key)
	return nil
}

// RemoveMetadata removes one key from the record's meta_data,
// re-validates, and persists only if the result is still valid.
// Removing a key the governance rules require (assembly on a
// coordinate file, tool on a derived file) fails validation and
// leaves the record untouched.
func (s *Service) RemoveMetadata(ctx context.Context, userID, fileID, key string) error {
	rec, err := s.GetByID(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}

	updated := rec.Clone()
	if updated.MetaData != nil {
		delete(updated.MetaData, key)
	}

	if err := Validate(updated); err != nil {
		return err
	}
	if err := s.store.Update(ctx, Filter{FieldID: fileID, FieldUserID: userID},
		map[string]any{FieldMetaData: updated.MetaData}); err != nil {
		return fmt.Errorf("updating meta data for %s: %w", fileID, err)
	}

	s.logger.Info("meta data removed", "user_id", userID, "file_id", fileID, "key", key)
	return nil
}

// AmendField updates a single top-level field of the record. Numeric
// fields (size, taxon_id) are coerced to integers, rejecting malformed
// values with a FieldTypeError. The full resulting record is
// re-validated before it is persisted.
func (s *Service) AmendField(ctx context.Context, userID, fileID, field string, value any) error {
	rec, err := s.GetByID(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}

	updated := rec.Clone()
	var stored any

	switch field {
	case FieldFilePath:
		v, err := stringValue(field, value)
		if err != nil {
			return err
		}
		updated.FilePath, stored = v, v
	case FieldPathType:
		v, err := stringValue(field, value)
		if err != nil {
			return err
		}
		updated.PathType, stored = model.PathType(v), model.PathType(v)
	case FieldFileType:
		v, err := stringValue(field, value)
		if err != nil {
			return err
		}
		updated.FileType, stored = v, v
	case FieldDataType:
		v, err := stringValue(field, value)
		if err != nil {
			return err
		}
		updated.DataType, stored = v, v
	case FieldParentDir:
		v, err := stringValue(field, value)
		if err != nil {
			return err
		}
		updated.ParentDir, stored = v, v
	case FieldCompressed:
		v, err := stringValue(field, value)
		if err != nil {
			return err
		}
		updated.Compressed, stored = model.Compression(v), model.Compression(v)
	case FieldSize:
		n, err := intValue(field, value)
		if err != nil {
			return err
		}
		updated.Size, stored = n, n
	case FieldTaxonID:
		n, err := intValue(field, value)
		if err != nil {
			return err
		}
		updated.TaxonID, stored = n, n
	default:
		return fmt.Errorf("field %s cannot be amended", field)
	}

	if err := Validate(updated); err != nil {
		return err
	}
	if err := s.store.Update(ctx, Filter{FieldID: fileID, FieldUserID: userID},
		map[string]any{field: stored}); err != nil {
		return fmt.Errorf("updating field %s for %s: %w", field, fileID, err)
	}

	s.logger.Info("field amended", "user_id", userID, "file_id", fileID, "field", field)
	return nil
}

// Remove deletes the record, scoped to the user, and returns the file
// id. Deleting a non-owned or non-existent id is a no-op returning the
// same id.
func (s *Service) Remove(ctx context.Context, userID, fileID string) (string, error) {
	if err := s.store.Delete(ctx, Filter{FieldID: fileID, FieldUserID: userID}); err != nil {
		return "", fmt.Errorf("deleting file %s: %w", fileID, err)
	}
	s.logger.Info("file removed", "user_id", userID, "file_id", fileID)
	return fileID, nil
}

// intValue coerces value to int64, accepting integer kinds, whole
// floats (JSON numbers decode as float64) and decimal strings.
func intValue(field string, value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, &FieldTypeError{Field: field, Value: value}
}

func stringValue(field string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %s requires a string value, got %T", field, value)
	}
	return s, nil
}
