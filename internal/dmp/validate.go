package dmp

import (
	"sort"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
)

// fileTypePolicy records what companion metadata a governed file type
// requires before a record carrying it may exist.
type fileTypePolicy struct {
	// RequiresAssembly is set for alignment and coordinate-bearing
	// formats: positions are meaningless without the genome assembly
	// they refer to.
	RequiresAssembly bool
}

// fileTypes is the governed set of accepted format tags. Adding a new
// format is a one-line edit here.
var fileTypes = map[string]fileTypePolicy{
	"bam":  {RequiresAssembly: true},
	"bed":  {RequiresAssembly: true},
	"bb":   {RequiresAssembly: true},
	"bw":   {RequiresAssembly: true},
	"wig":  {RequiresAssembly: true},
	"tbi":  {RequiresAssembly: true},
	"hdf5": {RequiresAssembly: true},

	"fastq": {},
	"fa":    {},
	"fasta": {},
	"gz":    {},
	"zip":   {},
	"json":  {},
	"txt":   {},
	"tsv":   {},
	"pdb":   {},
	"pdf":   {},
}

// GovernedFileTypes returns the accepted format tags, sorted.
func GovernedFileTypes() []string {
	out := make([]string, 0, len(fileTypes))
	for ft := range fileTypes {
		out = append(out, ft)
	}
	sort.Strings(out)
	return out
}

// RequiresAssembly reports whether records of the given file type must
// carry an assembly in their metadata.
func RequiresAssembly(fileType string) bool {
	return fileTypes[fileType].RequiresAssembly
}

// Validate decides whether a candidate file record may exist in the
// catalog. Rules are applied in order and the first failure wins. The
// function is pure: it never touches the store, and every mutation
// path re-runs it against the full resulting record.
func Validate(rec *model.FileRecord) error {
	if rec.UserID == "" {
		return &ValidationError{Field: FieldUserID, Reason: "user id required"}
	}
	if rec.FilePath == "" {
		return &ValidationError{Field: FieldFilePath, Reason: "file path required"}
	}
	switch rec.PathType {
	case model.PathTypeFile, model.PathTypeDir, model.PathTypeLink:
	default:
		return &ValidationError{
			Field:   FieldPathType,
			Reason:  "invalid path type",
			Allowed: []string{string(model.PathTypeFile), string(model.PathTypeDir), string(model.PathTypeLink)},
		}
	}
	policy, ok := fileTypes[rec.FileType]
	if !ok {
		return &ValidationError{Field: FieldFileType, Reason: "invalid file type", Allowed: GovernedFileTypes()}
	}
	if rec.Size < 0 {
		return &ValidationError{Field: FieldSize, Reason: "size must be a non-negative integer"}
	}
	if rec.TaxonID <= 0 {
		return &ValidationError{Field: FieldTaxonID, Reason: "taxon id required"}
	}
	if policy.RequiresAssembly && !hasMeta(rec, model.MetaKeyAssembly) {
		return &ValidationError{Field: FieldMetaData, Reason: "assembly required in meta data"}
	}
	if len(rec.SourceID) > 0 && !hasMeta(rec, model.MetaKeyTool) {
		return &ValidationError{Field: FieldMetaData, Reason: "tool name required in meta data when derived from other files"}
	}
	return nil
}

// hasMeta reports whether the metadata key is present with a usable
// value. Nil values and empty strings count as absent.
func hasMeta(rec *model.FileRecord, key string) bool {
	v, ok := rec.Meta(key)
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}
