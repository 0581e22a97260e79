package sched

import (
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/mobnews/internal/categorize"
	"github.com/TobiSchelling/mobnews/internal/config"
	"github.com/TobiSchelling/mobnews/internal/crawler"
	"github.com/TobiSchelling/mobnews/internal/ingest"
	"github.com/TobiSchelling/mobnews/internal/store"
)

func testIngestor(t *testing.T) *ingest.Ingestor {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	reg := crawler.NewRegistry(&config.Config{}, 0)
	return ingest.New(st, categorize.New(nil), reg, "")
}

func TestNewAcceptsDefaultSpecs(t *testing.T) {
	r, err := New(testIngestor(t), "0 */6 * * *", "30 */2 * * *")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Start()
	r.Stop()
}

func TestNewRejectsBadSpec(t *testing.T) {
	ing := testIngestor(t)

	if _, err := New(ing, "not a cron spec", "30 */2 * * *"); err == nil {
		t.Error("expected error for bad feed spec")
	}
	if _, err := New(ing, "0 */6 * * *", "whenever"); err == nil {
		t.Error("expected error for bad forum spec")
	}
}
