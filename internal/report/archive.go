package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// RunStamp returns the directory name for one run's archive
func RunStamp(t time.Time) string {
	return t.UTC().Format("20060102_150405")
}

// CleanupArchive removes archive run directories older than the retention
// window. Unparseable directory names are left alone.
func (w *Writer) CleanupArchive(now time.Time) error {
	entries, err := os.ReadDir(w.cfg.ArchiveDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading archive dir: %w", err)
	}

	cutoff := now.UTC().AddDate(0, 0, -w.cfg.ArchiveRetentionDays)
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		stamp, err := time.Parse("20060102_150405", entry.Name())
		if err != nil {
			continue
		}
		if stamp.After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.cfg.ArchiveDir, entry.Name())); err != nil {
			return fmt.Errorf("removing archived run %s: %w", entry.Name(), err)
		}
		removed++
	}

	if removed > 0 {
		w.logger.WithFields(logrus.Fields{
			"removed":        removed,
			"retention_days": w.cfg.ArchiveRetentionDays,
		}).Info("Archive cleanup complete")
	}
	return nil
}
