package dmp_test

import (
	"context"
	"testing"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/testutil"
)

// registerDerived registers a file for user "adam" derived from the
// given parents, with the metadata the governance rules demand.
func registerDerived(t *testing.T, svc *dmp.Service, path string, parents ...string) string {
	t.Helper()
	input := dmp.RegisterInput{
		UserID:   "adam",
		FilePath: path,
		PathType: model.PathTypeFile,
		FileType: "bam",
		Size:     64000,
		DataType: "RNA-seq",
		TaxonID:  9606,
		SourceID: parents,
		MetaData: map[string]any{model.MetaKeyAssembly: "GCA_0123456789"},
	}
	if len(parents) > 0 {
		input.MetaData[model.MetaKeyTool] = "bwa"
	}
	return mustRegister(t, svc, input)
}

func edgeSet(edges []dmp.Edge) map[dmp.Edge]bool {
	out := make(map[dmp.Edge]bool, len(edges))
	for _, e := range edges {
		out[e] = true
	}
	return out
}

func TestService_History_Chain(t *testing.T) {
	t.Parallel()
	svc, _ := testutil.NewTestService(t)
	ctx := context.Background()

	c := registerDerived(t, svc, "/data/c.bam")
	b := registerDerived(t, svc, "/data/b.bam", c)
	a := registerDerived(t, svc, "/data/a.bam", b)

	edges, err := svc.History(ctx, "adam", a)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}

	want := map[dmp.Edge]bool{
		{Child: a, Parent: b}: true,
		{Child: b, Parent: c}: true,
	}
	got := edgeSet(edges)
	if len(edges) != len(want) {
		t.Fatalf("History() = %d edges, want %d: %v", len(edges), len(want), edges)
	}
	for e := range want {
		if !got[e] {
			t.Errorf("History() missing edge %v", e)
		}
	}
}

func TestService_History_DiamondDeduplicates(t *testing.T) {
	t.Parallel()
	svc, _ := testutil.NewTestService(t)
	ctx := context.Background()

	d := registerDerived(t, svc, "/data/d.bam")
	b := registerDerived(t, svc, "/data/b.bam", d)
	c := registerDerived(t, svc, "/data/c.bam", d)
	a := registerDerived(t, svc, "/data/a.bam", b, c)

	edges, err := svc.History(ctx, "adam", a)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}

	want := map[dmp.Edge]bool{
		{Child: a, Parent: b}: true,
		{Child: a, Parent: c}: true,
		{Child: b, Parent: d}: true,
		{Child: c, Parent: d}: true,
	}
	got := edgeSet(edges)
	if len(edges) != len(want) {
		t.Fatalf("History() = %d edges, want %d with no duplicates: %v", len(edges), len(want), edges)
	}
	for e := range want {
		if !got[e] {
			t.Errorf("History() missing edge %v", e)
		}
	}
}

func TestService_History_UnknownFileIsEmpty(t *testing.T) {
	t.Parallel()
	svc, _ := testutil.NewTestService(t)

	edges, err := svc.History(context.Background(), "adam", "no-such-id")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("History() = %v, want empty", edges)
	}
}

func TestService_History_ScopedToTenant(t *testing.T) {
	t.Parallel()
	svc, _ := testutil.NewTestService(t)
	ctx := context.Background()

	b := registerDerived(t, svc, "/data/b.bam")
	a := registerDerived(t, svc, "/data/a.bam", b)

	edges, err := svc.History(ctx, "ben", a)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("History() for wrong tenant = %v, want empty", edges)
	}
}

func TestService_History_OrphanedParentIsDeadEnd(t *testing.T) {
	t.Parallel()
	svc, _ := testutil.NewTestService(t)
	ctx := context.Background()

	// A register-then-link sequence that lost its parent: the edge to
	// the orphan is still reported, the walk just stops there.
	a := registerDerived(t, svc, "/data/a.bam", "vanished-parent")

	edges, err := svc.History(ctx, "adam", a)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	want := dmp.Edge{Child: a, Parent: "vanished-parent"}
	if len(edges) != 1 || edges[0] != want {
		t.Errorf("History() = %v, want [%v]", edges, want)
	}
}

func TestService_History_TerminatesOnCycle(t *testing.T) {
	t.Parallel()
	svc, st := testutil.NewTestService(t)
	ctx := context.Background()

	a := registerDerived(t, svc, "/data/a.bam")
	b := registerDerived(t, svc, "/data/b.bam", a)

	// Corrupt the store directly: point a back at b, closing a cycle
	// the catalog itself would never create.
	err := st.Update(ctx,
		dmp.Filter{dmp.FieldID: a, dmp.FieldUserID: "adam"},
		map[string]any{dmp.FieldSourceID: []string{b}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	edges, err := svc.History(ctx, "adam", b)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}

	want := map[dmp.Edge]bool{
		{Child: b, Parent: a}: true,
		{Child: a, Parent: b}: true,
	}
	got := edgeSet(edges)
	if len(edges) != len(want) {
		t.Fatalf("History() on cycle = %d edges, want %d: %v", len(edges), len(want), edges)
	}
	for e := range want {
		if !got[e] {
			t.Errorf("History() missing edge %v", e)
		}
	}
}
