package dmp_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/testutil"
)

func TestLoadSampleDataset(t *testing.T) {
	t.Parallel()
	svc, _ := testutil.NewTestService(t)
	ctx := context.Background()

	rng := rand.New(rand.NewSource(1))
	if err := dmp.LoadSampleDataset(ctx, svc, rng); err != nil {
		t.Fatalf("LoadSampleDataset() error = %v", err)
	}

	raoFiles, err := svc.FilesByUser(ctx, "rao", false)
	if err != nil {
		t.Fatalf("FilesByUser(rao) error = %v", err)
	}
	if len(raoFiles) != 1 {
		t.Fatalf("rao has %d files, want 1", len(raoFiles))
	}
	seed := raoFiles[0]
	if seed.FileType != "hdf5" || seed.DataType != "HiC" || seed.TaxonID != 9606 {
		t.Errorf("seed record = %q/%q/%d, want hdf5/HiC/9606", seed.FileType, seed.DataType, seed.TaxonID)
	}
	if _, ok := seed.Meta(model.MetaKeyAssembly); !ok {
		t.Error("seed record has no assembly")
	}

	total := len(raoFiles)
	for _, user := range []string{"adam", "ben", "chris", "denis", "eric"} {
		recs, err := svc.FilesByUser(ctx, user, false)
		if err != nil {
			t.Fatalf("FilesByUser(%s) error = %v", user, err)
		}
		total += len(recs)

		// The loader must not produce derived files without their tool.
		for _, r := range recs {
			if len(r.SourceID) > 0 {
				if _, ok := r.Meta(model.MetaKeyTool); !ok {
					t.Errorf("derived record %s has no tool in meta_data", r.ID)
				}
			}
		}
	}

	// 1 seed + 10 random files + up to 10 derived bams.
	if total < 11 || total > 21 {
		t.Errorf("total sample records = %d, want between 11 and 21", total)
	}
}
