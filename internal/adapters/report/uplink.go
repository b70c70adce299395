package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/ports"
)

const reportRowsEndpoint = "/v1/ingest/report-rows"

// UplinkConfig configures remote delivery.
type UplinkConfig struct {
	ServiceURL string
	AuthKey    string
	Platform   string

	// MinRows is how many undelivered rows must accumulate before a batch
	// is sent; small batches are held back until the next window.
	MinRows int
}

// Uplink delivers accumulated report rows to a remote collection service.
// It drains the SQLite store rather than the window itself, so rows missed
// during an outage are retried on the next emit.
type Uplink struct {
	cfg     UplinkConfig
	store   *Store
	client  ports.HTTPClient
	logger  ports.Logger
	lastRow int64
}

// NewUplink builds an uplink draining store.
func NewUplink(cfg UplinkConfig, store *Store, client ports.HTTPClient, logger ports.Logger) *Uplink {
	if cfg.MinRows <= 0 {
		cfg.MinRows = 1
	}
	return &Uplink{cfg: cfg, store: store, client: client, logger: logger}
}

// Emit sends every undelivered row once at least MinRows have accumulated.
// The window argument only triggers the drain; content comes from the store.
func (u *Uplink) Emit(ctx context.Context, _ *domain.ProcessedWindow) error {
	rows, err := u.store.RowsSince(ctx, u.lastRow, 10000)
	if err != nil {
		return fmt.Errorf("%w: uplink: %v", domain.ErrDelivery, err)
	}
	if len(rows) < u.cfg.MinRows {
		u.logger.Debug("uplink pending",
			ports.Int("rows", len(rows)),
			ports.Int("required", u.cfg.MinRows))
		return nil
	}

	payload := make([]Row, len(rows))
	for i, r := range rows {
		payload[i] = r.Row
	}
	if err := u.send(ctx, payload); err != nil {
		return fmt.Errorf("%w: uplink: %v", domain.ErrDelivery, err)
	}

	u.lastRow = rows[len(rows)-1].ID
	u.logger.Info("report rows delivered",
		ports.Int("rows", len(rows)),
		ports.Any("through", u.lastRow))
	return nil
}

func (u *Uplink) send(ctx context.Context, rows []Row) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}

	url := u.cfg.ServiceURL + reportRowsEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	hostname, _ := os.Hostname()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+u.cfg.AuthKey)
	req.Header.Set("X-Agent-Hostname", hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)
	req.Header.Set("X-Platform", u.cfg.Platform)

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
