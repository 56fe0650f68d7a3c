package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweepRemovesOnlyStalePDFs(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "old.pdf")
	fresh := filepath.Join(dir, "new.pdf")
	other := filepath.Join(dir, "notes.txt")

	for _, path := range []string{stale, fresh, other} {
		if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(other, past, past); err != nil {
		t.Fatal(err)
	}

	cs := NewCleanupService(dir, time.Hour)
	if err := cs.Sweep(); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale pdf should have been removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh pdf should survive the sweep")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("non-pdf files are not the sweeper's business")
	}
}

func TestSweepMissingDir(t *testing.T) {
	cs := NewCleanupService("/nonexistent/upload/dir", time.Hour)
	if err := cs.Sweep(); err != nil {
		t.Fatalf("missing dir should not be an error: %v", err)
	}
}
