// Package testutil provides deterministic test doubles for the
// catalog service.
package testutil

import (
	"testing"
	"time"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/store"
)

// FixedClock always reports the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// TestTime is the instant FixedClock reports in service tests.
var TestTime = time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC)

// NewTestService returns a catalog service over a fresh in-memory
// store, with a fixed clock and discarded logs.
func NewTestService(t *testing.T) (*dmp.Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := dmp.NewService(st, dmp.NewNopLogger(), FixedClock{T: TestTime}, 0)
	return svc, st
}
