package store_test

import (
	"context"
	"testing"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/store"
)

func entry(user, path, fileType string) *model.FileRecord {
	return &model.FileRecord{
		UserID:   user,
		FilePath: path,
		PathType: model.PathTypeFile,
		FileType: fileType,
		Size:     64000,
		DataType: "RNA-seq",
		TaxonID:  9606,
		MetaData: map[string]any{model.MetaKeyAssembly: "GCA_0123456789"},
	}
}

func TestMemoryStore_InsertAssignsID(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	ctx := context.Background()

	rec := entry("adam", "/data/a.bam", "bam")
	id, err := st.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id == "" {
		t.Fatal("Insert() returned empty id")
	}
	if rec.ID != "" {
		t.Error("Insert() mutated the caller's record id")
	}

	got, err := st.FindOne(ctx, dmp.Filter{dmp.FieldID: id})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got == nil || got.ID != id {
		t.Fatalf("FindOne() = %+v, want record with id %q", got, id)
	}
}

func TestMemoryStore_FindFilters(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	ctx := context.Background()

	if _, err := st.Insert(ctx, entry("adam", "/data/a.bam", "bam")); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Insert(ctx, entry("adam", "/data/b.fastq", "fastq")); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Insert(ctx, entry("ben", "/data/c.bam", "bam")); err != nil {
		t.Fatal(err)
	}

	t.Run("conjunction of user and file type", func(t *testing.T) {
		recs, err := st.Find(ctx, dmp.Filter{dmp.FieldUserID: "adam", dmp.FieldFileType: "bam"})
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(recs) != 1 || recs[0].FilePath != "/data/a.bam" {
			t.Errorf("Find() = %d records", len(recs))
		}
	})

	t.Run("dotted key reaches meta_data", func(t *testing.T) {
		recs, err := st.Find(ctx, dmp.Filter{
			dmp.FieldUserID:                  "ben",
			"meta_data." + model.MetaKeyAssembly: "GCA_0123456789",
		})
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(recs) != 1 {
			t.Errorf("Find() = %d records, want 1", len(recs))
		}
	})

	t.Run("integer filter values match across kinds", func(t *testing.T) {
		recs, err := st.Find(ctx, dmp.Filter{dmp.FieldUserID: "adam", dmp.FieldTaxonID: 9606})
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(recs) != 2 {
			t.Errorf("Find(taxon as int) = %d records, want 2", len(recs))
		}
	})

	t.Run("no match is empty, not nil error", func(t *testing.T) {
		rec, err := st.FindOne(ctx, dmp.Filter{dmp.FieldUserID: "chris"})
		if err != nil {
			t.Fatalf("FindOne() error = %v", err)
		}
		if rec != nil {
			t.Errorf("FindOne() = %+v, want nil", rec)
		}
	})
}

func TestMemoryStore_FindReturnsCopies(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	ctx := context.Background()

	id, _ := st.Insert(ctx, entry("adam", "/data/a.bam", "bam"))

	rec, _ := st.FindOne(ctx, dmp.Filter{dmp.FieldID: id})
	rec.MetaData["mutated"] = true

	again, _ := st.FindOne(ctx, dmp.Filter{dmp.FieldID: id})
	if _, ok := again.Meta("mutated"); ok {
		t.Error("mutating a returned record leaked into the store")
	}
}

func TestMemoryStore_Update(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	ctx := context.Background()

	id, _ := st.Insert(ctx, entry("adam", "/data/a.bam", "bam"))

	err := st.Update(ctx, dmp.Filter{dmp.FieldID: id}, map[string]any{
		dmp.FieldSize:     int64(128000),
		dmp.FieldMetaData: map[string]any{model.MetaKeyAssembly: "GCA_987", "tool": "bwa"},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	rec, _ := st.FindOne(ctx, dmp.Filter{dmp.FieldID: id})
	if rec.Size != 128000 {
		t.Errorf("Size = %d, want 128000", rec.Size)
	}
	if got, _ := rec.Meta(model.MetaKeyAssembly); got != "GCA_987" {
		t.Errorf("assembly = %v, want GCA_987", got)
	}

	t.Run("unknown field is an error", func(t *testing.T) {
		err := st.Update(ctx, dmp.Filter{dmp.FieldID: id}, map[string]any{"creation_time": "now"})
		if err == nil {
			t.Error("Update() error = nil, want error for unknown field")
		}
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	ctx := context.Background()

	id, _ := st.Insert(ctx, entry("adam", "/data/a.bam", "bam"))
	if _, err := st.Insert(ctx, entry("adam", "/data/b.bam", "bam")); err != nil {
		t.Fatal(err)
	}

	// Tenant-scoped delete with the wrong user touches nothing.
	if err := st.Delete(ctx, dmp.Filter{dmp.FieldID: id, dmp.FieldUserID: "ben"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	recs, _ := st.Find(ctx, dmp.Filter{dmp.FieldUserID: "adam"})
	if len(recs) != 2 {
		t.Fatalf("record count = %d after foreign delete, want 2", len(recs))
	}

	if err := st.Delete(ctx, dmp.Filter{dmp.FieldID: id, dmp.FieldUserID: "adam"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	recs, _ = st.Find(ctx, dmp.Filter{dmp.FieldUserID: "adam"})
	if len(recs) != 1 {
		t.Errorf("record count = %d after delete, want 1", len(recs))
	}
}
