// Package report renders domain reports to spreadsheet or PDF files.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashdesk/internal/domain"
)

// Exporter implements usecase.ReportExporter. Files land in $HOME/Desktop when that
// folder exists, otherwise in the fallback directory.
type Exporter struct {
	fallbackDir string
	desktopDir  func() (string, bool)
	now         func() time.Time
	logger      zerolog.Logger
}

// NewExporter creates an Exporter writing to fallbackDir when no desktop folder exists.
func NewExporter(fallbackDir string, logger zerolog.Logger) *Exporter {
	return &Exporter{
		fallbackDir: fallbackDir,
		desktopDir:  homeDesktop,
		now:         time.Now,
		logger:      logger,
	}
}

// WithDesktop overrides desktop folder discovery.
func (e *Exporter) WithDesktop(find func() (string, bool)) *Exporter {
	e.desktopDir = find
	return e
}

// WithClock overrides the clock used to stamp file names.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// Export writes the report and returns the absolute file path.
func (e *Exporter) Export(ctx context.Context, r domain.Report, format domain.ReportFormat) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := e.outputDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fileName(r.Name, e.now(), format))

	switch format {
	case domain.ReportExcel:
		err = writeExcel(path, r)
	case domain.ReportPDF:
		err = writePDF(path, r)
	default:
		return "", domain.ErrInvalidReportFormat
	}
	if err != nil {
		return "", fmt.Errorf("export %s report: %w", format, err)
	}

	e.logger.Info().
		Str("report", r.Name).
		Str("format", string(format)).
		Int("rows", len(r.Rows)).
		Str("path", path).
		Msg("report exported")
	return path, nil
}

func (e *Exporter) outputDir() (string, error) {
	if dir, ok := e.desktopDir(); ok {
		return dir, nil
	}
	dir := e.fallbackDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	return dir, nil
}

func homeDesktop() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	dir := filepath.Join(home, "Desktop")
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

func fileName(stem string, at time.Time, format domain.ReportFormat) string {
	if stem == "" {
		stem = "report"
	}
	return stem + "_" + at.Format("20060102_150405") + format.Extension()
}
