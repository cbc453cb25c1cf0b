package dmp

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
)

// Sample fixture values, carried over from the historical loading
// dataset so downstream demos keep working against familiar names.
var (
	sampleUsers     = []string{"adam", "ben", "chris", "denis", "eric"}
	sampleFileTypes = []string{"fastq", "fa", "fasta", "bam", "bed", "hdf5", "tsv", "wig", "pdb"}
	sampleDataTypes = []string{"RNA-seq", "MNase-Seq", "ChIP-seq", "WGBS", "HiC"}
	sampleZips      = []model.Compression{model.CompressionNone, model.CompressionGzip, model.CompressionZip}
)

const sampleAssembly = "GCA_0123456789"

// LoadSampleDataset registers a small randomised fixture: a shared
// Hi-C adjacency file for user "rao" plus ten files spread across the
// sample users, occasionally with a derived bam hanging off a fastq.
// Pass a seeded rng for a reproducible dataset; nil uses global
// randomness.
func LoadSampleDataset(ctx context.Context, svc *Service, rng *rand.Rand) error {
	pick := rand.Intn
	if rng != nil {
		pick = rng.Intn
	}

	_, err := svc.Register(ctx, RegisterInput{
		UserID:   "rao",
		FilePath: "/tmp/sample/rao2014.hdf5",
		PathType: model.PathTypeFile,
		FileType: "hdf5",
		Size:     64000,
		DataType: "HiC",
		TaxonID:  9606,
		MetaData: map[string]any{model.MetaKeyAssembly: sampleAssembly},
	})
	if err != nil {
		return fmt.Errorf("registering seed adjacency file: %w", err)
	}

	for i := 0; i < 10; i++ {
		user := sampleUsers[pick(len(sampleUsers))]
		fileType := sampleFileTypes[pick(len(sampleFileTypes))]
		dataType := sampleDataTypes[pick(len(sampleDataTypes))]
		zipped := sampleZips[pick(len(sampleZips))]

		fileID, err := svc.Register(ctx, RegisterInput{
			UserID:     user,
			FilePath:   fmt.Sprintf("/tmp/test/%s/test_%d.%s", dataType, i, fileType),
			PathType:   model.PathTypeFile,
			FileType:   fileType,
			Size:       64000,
			DataType:   dataType,
			TaxonID:    9606,
			Compressed: zipped,
			MetaData:   map[string]any{model.MetaKeyAssembly: sampleAssembly},
		})
		if err != nil {
			return fmt.Errorf("registering sample file %d: %w", i, err)
		}

		if dataType == "RNA-seq" && fileType == "fastq" && pick(2) == 1 {
			_, err := svc.Register(ctx, RegisterInput{
				UserID:   user,
				FilePath: fmt.Sprintf("/tmp/test/%s/test_%d.bam", dataType, i),
				PathType: model.PathTypeFile,
				FileType: "bam",
				Size:     64000,
				DataType: dataType,
				TaxonID:  9606,
				SourceID: []string{fileID},
				MetaData: map[string]any{
					model.MetaKeyAssembly: sampleAssembly,
					model.MetaKeyTool:     "bwa",
				},
			})
			if err != nil {
				return fmt.Errorf("registering derived bam for sample %d: %w", i, err)
			}
		}
	}

	return nil
}
