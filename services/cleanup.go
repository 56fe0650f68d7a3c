package services

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-co-op/gocron"

	"pdf-rag-service/internal/logger"
)

// CleanupService periodically removes uploaded PDFs that outlived the record
// TTL. A file that old belongs to a job that either finished long ago or
// failed before it could delete its own upload.
type CleanupService struct {
	uploadDir string
	maxAge    time.Duration
	scheduler *gocron.Scheduler
}

func NewCleanupService(uploadDir string, maxAge time.Duration) *CleanupService {
	return &CleanupService{
		uploadDir: uploadDir,
		maxAge:    maxAge,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the sweep every 15 minutes and runs the scheduler in the
// background.
func (cs *CleanupService) Start() {
	cs.scheduler.Every(15).Minutes().Do(func() {
		if err := cs.Sweep(); err != nil {
			logger.Error("Upload cleanup sweep failed", "error", err)
		}
	})
	cs.scheduler.StartAsync()

	logger.Info("Upload cleanup scheduler started", "dir", cs.uploadDir, "max_age", cs.maxAge.String())
}

// Stop halts the scheduler.
func (cs *CleanupService) Stop() {
	cs.scheduler.Stop()
}

// Sweep deletes stale .pdf files from the upload directory and returns the
// first error encountered while still attempting the remaining files.
func (cs *CleanupService) Sweep() error {
	entries, err := os.ReadDir(cs.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-cs.maxAge)
	var firstErr error
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(cs.uploadDir, entry.Name())); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("Removed stale uploads", "count", removed)
	}
	return firstErr
}
