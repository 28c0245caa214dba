package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/viewport/probe/report"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ReportRoundtrip(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	rep := report.Report{
		ID:          "r1",
		PageURL:     "https://example.com",
		PageID:      "home",
		Set:         "bootstrap",
		Breakpoints: []string{"xs", "sm"},
		Samples: []report.Sample{
			{Width: 320, Height: 900, Current: "xs", Matches: map[string]bool{"<=sm": true}},
		},
		Timestamp: 1000,
	}
	if err := s.SendReport(ctx, rep); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PageID != "home" || len(got.Samples) != 1 || !got.Samples[0].Matches["<=sm"] {
		t.Errorf("Get: got %+v", got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openMemory(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_ListNewestFirstAndFiltered(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	for i, r := range []report.Report{
		{ID: "a", PageURL: "https://one", Set: "bootstrap", Timestamp: 1},
		{ID: "b", PageURL: "https://two", Set: "bootstrap", Timestamp: 2},
		{ID: "c", PageURL: "https://one", Set: "custom", Timestamp: 3},
	} {
		if err := s.SendReport(ctx, r); err != nil {
			t.Fatalf("report %d: %v", i, err)
		}
	}

	all, err := s.List(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("List all: got %v", ids(all))
	}

	one, err := s.List(ctx, "https://one", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(one) != 1 || one[0].ID != "c" {
		t.Errorf("List filtered: got %v", ids(one))
	}
}

func TestStore_Changes(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	changes := []report.Change{
		{ID: "c1", PageURL: "https://one", Previous: "unrecognized", Current: "md", Width: 800, Timestamp: 10},
		{ID: "c2", PageURL: "https://one", Previous: "md", Current: "lg", Width: 1000, Timestamp: 20},
	}
	for _, c := range changes {
		if err := s.SendChange(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Changes(ctx, "https://one", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "c2" || got[0].Width != 1000 {
		t.Errorf("Changes: got %+v", got)
	}
}

func TestStore_OpenFileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "viewport.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.SendReport(context.Background(), report.Report{ID: "x", PageURL: "u", Set: "s"}); err != nil {
		t.Fatal(err)
	}
}

func ids(rs []report.Report) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestStore_CloseTwice(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
