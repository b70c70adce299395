package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/seaward-labs/echoline/internal/domain"
)

// logNameFormat names one session's log after its start time, matching the
// instrument's own file naming.
const logNameFormat = "D20060102-T150405"

var csvHeader = []string{
	"time", "longitude", "latitude", "transect", "miles", "seabed", "nasc", "pct_samples",
}

// CSVLog appends each window's bins to one CSV file per session. The file is
// created lazily with a header on the first emit.
type CSVLog struct {
	path string
}

// NewCSVLog builds a CSV sink under dir. The session name is fixed at
// construction time.
func NewCSVLog(dir string, now time.Time) (*CSVLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csv log: %w", err)
	}
	return &CSVLog{path: filepath.Join(dir, now.UTC().Format(logNameFormat)+".csv")}, nil
}

// Path returns the session's log file path.
func (l *CSVLog) Path() string {
	return l.path
}

// Emit appends the window's bins.
func (l *CSVLog) Emit(ctx context.Context, win *domain.ProcessedWindow) error {
	rows := Rows(win)
	if len(rows) == 0 {
		return nil
	}

	_, statErr := os.Stat(l.path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: csv log: %v", domain.ErrDelivery, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("%w: csv log: %v", domain.ErrDelivery, err)
		}
	}
	for _, r := range rows {
		record := []string{
			r.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.Longitude, 'f', 5, 64),
			strconv.FormatFloat(r.Latitude, 'f', 5, 64),
			strconv.Itoa(r.Transect),
			strconv.FormatFloat(r.Miles, 'f', 0, 64),
			strconv.FormatFloat(r.Seabed, 'f', 1, 64),
			strconv.FormatFloat(r.NASC, 'f', 2, 64),
			strconv.FormatFloat(r.PCT, 'f', 1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("%w: csv log: %v", domain.ErrDelivery, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: csv log: %v", domain.ErrDelivery, err)
	}
	return nil
}
