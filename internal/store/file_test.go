package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/settlerhq/settler/internal/model"
)

func sampleMarkets() []model.Market {
	outcome := 72
	checked := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []model.Market{
		{
			ID:    "mkt-1",
			Title: "Will it rain tomorrow?",
			Oracle: &model.MarketOracleState{
				Type:          model.OracleTypeAI,
				Status:        model.StatusPending,
				LastCheckedAt: &checked,
			},
		},
		{
			ID:              "mkt-2",
			Title:           "Will turnout exceed 60%?",
			Resolved:        true,
			ResolvedOutcome: &outcome,
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markets.json")
	s := NewFileStore(path)
	ctx := context.Background()

	want := sampleMarkets()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(got))
	}
	if got[0].ID != "mkt-1" || got[1].ID != "mkt-2" {
		t.Errorf("ids not preserved: %q, %q", got[0].ID, got[1].ID)
	}
	if got[0].Oracle == nil || got[0].Oracle.LastCheckedAt == nil {
		t.Fatal("oracle state lost in round trip")
	}
	if got[1].ResolvedOutcome == nil || *got[1].ResolvedOutcome != 72 {
		t.Errorf("resolved outcome lost: %v", got[1].ResolvedOutcome)
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty store, got %d markets", len(got))
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markets.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Error("expected parse error for corrupt store")
	}
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "markets.json"))
	if err := s.Save(context.Background(), sampleMarkets()); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "markets.json" {
		t.Errorf("expected only markets.json, got %v", entries)
	}
}

func TestOpenDispatch(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(model.StoreConfig{Backend: "file", Path: filepath.Join(dir, "m.json")})
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("expected *FileStore, got %T", s)
	}

	s, err = Open(model.StoreConfig{Backend: "sqlite", Path: filepath.Join(dir, "m.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", s)
	}
	s.Close()

	if _, err := Open(model.StoreConfig{Backend: "redis"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
