package model

import "time"

// PathType classifies what a FileRecord's file_path points at.
type PathType string

const (
	PathTypeFile PathType = "file"
	PathTypeDir  PathType = "dir"
	PathTypeLink PathType = "link"
)

// Compression identifies the compression applied to a file, if any.
// An empty value means the file is not compressed.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZip  Compression = "zip"
)

// Well-known meta_data keys the catalog gives meaning to. Everything
// else in MetaData is an opaque annotation attached by pipelines.
const (
	MetaKeyAssembly   = "assembly"
	MetaKeyTool       = "tool"
	MetaKeyExpiration = "expiration_date"
)

// FileRecord is a catalog entry describing one managed file, who owns
// it, and the files it was derived from.
type FileRecord struct {
	ID           string         `bson:"_id,omitempty" json:"_id,omitempty"`               // assigned by the store on insert
	UserID       string         `bson:"user_id" json:"user_id"`                           // tenant scope; "common" is shared
	FilePath     string         `bson:"file_path" json:"file_path"`                       // location on the shared filesystem
	PathType     PathType       `bson:"path_type" json:"path_type"`                       // file, dir or link
	FileType     string         `bson:"file_type" json:"file_type"`                       // governed format tag (bam, fastq, hdf5, ...)
	Size         int64          `bson:"size" json:"size"`                                 // bytes
	ParentDir    string         `bson:"parent_dir,omitempty" json:"parent_dir,omitempty"` // id of the containing dir record
	DataType     string         `bson:"data_type" json:"data_type"`                       // assay category (RNA-seq, HiC, ...)
	TaxonID      int64          `bson:"taxon_id" json:"taxon_id"`                         // NCBI taxon of the source species
	Compressed   Compression    `bson:"compressed" json:"compressed"`
	SourceID     []string       `bson:"source_id" json:"source_id"` // ids of the records this one was derived from
	MetaData     map[string]any `bson:"meta_data" json:"meta_data"`
	CreationTime time.Time      `bson:"creation_time" json:"creation_time"` // assigned at insert, immutable
}

// Meta returns the metadata value for key. The second return reports
// whether the key is present.
func (r *FileRecord) Meta(key string) (any, bool) {
	if r.MetaData == nil {
		return nil, false
	}
	v, ok := r.MetaData[key]
	return v, ok
}

// Clone returns a copy of the record with its own SourceID slice and
// MetaData map. One level deep, which is all the read-modify-write
// paths in the service layer need.
func (r *FileRecord) Clone() *FileRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.SourceID != nil {
		out.SourceID = append([]string(nil), r.SourceID...)
	}
	if r.MetaData != nil {
		out.MetaData = make(map[string]any, len(r.MetaData))
		for k, v := range r.MetaData {
			out.MetaData[k] = v
		}
	}
	return &out
}
