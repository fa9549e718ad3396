// Package report writes batch results to CSV and maintains the
// timestamped archive.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/models"
)

var predictionHeader = []string{
	"prediction_id", "match_id", "tournament", "surface", "format",
	"player1", "player2", "predicted_winner",
	"match_prob1", "match_prob2", "set_prob1", "set_prob2",
	"over_2_5_sets", "expected_games", "confidence",
	"red_flags", "notes", "created_at",
}

var skipHeader = []string{
	"match_id", "player1", "player2", "reason", "detail",
	"player1_matches", "player1_wins", "player1_win_rate",
	"player2_matches", "player2_wins", "player2_win_rate",
	"created_at",
}

// Writer writes prediction and skip CSVs for a batch run
type Writer struct {
	cfg    *config.ReportConfig
	logger *logrus.Logger
}

// NewWriter creates a report writer
func NewWriter(cfg *config.ReportConfig, logger *logrus.Logger) *Writer {
	return &Writer{cfg: cfg, logger: logger}
}

// WriteBatch writes the main prediction CSV (overwritten every run), the
// skip audit CSV next to it, and a timestamped copy in the archive
// directory. Returns the archive path.
func (w *Writer) WriteBatch(predictions []*models.SetPrediction, skips []*models.SkipRecord, runStamp string) (string, error) {
	if err := w.writePredictions(w.cfg.OutputPath, predictions); err != nil {
		return "", err
	}

	skipPath := skipPathFor(w.cfg.OutputPath)
	if err := w.writeSkips(skipPath, skips); err != nil {
		return "", err
	}

	archiveDir := filepath.Join(w.cfg.ArchiveDir, runStamp)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive dir: %w", err)
	}
	if err := w.writePredictions(filepath.Join(archiveDir, filepath.Base(w.cfg.OutputPath)), predictions); err != nil {
		return "", err
	}
	if err := w.writeSkips(filepath.Join(archiveDir, filepath.Base(skipPath)), skips); err != nil {
		return "", err
	}

	w.logger.WithFields(logrus.Fields{
		"output":      w.cfg.OutputPath,
		"archive":     archiveDir,
		"predictions": len(predictions),
		"skips":       len(skips),
	}).Info("Batch report written")

	return archiveDir, nil
}

func (w *Writer) writePredictions(path string, predictions []*models.SetPrediction) error {
	return writeCSV(path, predictionHeader, len(predictions), func(i int) []string {
		p := predictions[i]
		return []string{
			p.ID.String(),
			p.MatchID,
			p.Tournament,
			p.Surface,
			p.Format.String(),
			p.Player1Name,
			p.Player2Name,
			p.PredictedWinner,
			formatProb(p.MatchProb1),
			formatProb(p.MatchProb2),
			formatProb(p.SetProb1),
			formatProb(p.SetProb2),
			formatProb(p.OverTwoHalfSets),
			strconv.FormatFloat(p.ExpectedGames, 'f', 1, 64),
			p.Confidence.String(),
			strings.Join(p.RedFlags, "; "),
			strings.Join(p.Notes, "; "),
			p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	})
}

func (w *Writer) writeSkips(path string, skips []*models.SkipRecord) error {
	return writeCSV(path, skipHeader, len(skips), func(i int) []string {
		s := skips[i]
		return []string{
			s.MatchID,
			s.Player1Name,
			s.Player2Name,
			string(s.Reason),
			s.Detail,
			strconv.Itoa(s.Player1Sample.Matches),
			strconv.Itoa(s.Player1Sample.Wins),
			formatProb(s.Player1Sample.WinRate),
			strconv.Itoa(s.Player2Sample.Matches),
			strconv.Itoa(s.Player2Sample.Wins),
			formatProb(s.Player2Sample.WinRate),
			s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	})
}

func writeCSV(path string, header []string, rows int, row func(i int) []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header to %s: %w", path, err)
	}
	for i := 0; i < rows; i++ {
		if err := cw.Write(row(i)); err != nil {
			return fmt.Errorf("writing row to %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return file.Close()
}

func formatProb(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}

// skipPathFor derives the skip CSV path from the prediction CSV path
func skipPathFor(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + "_skips" + ext
}
