package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/seaward-labs/echoline/internal/domain"
)

// Console prints a fixed-width summary table of each window's bins.
type Console struct {
	w io.Writer
}

// NewConsole builds a console sink writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Emit writes the window's bin table.
func (c *Console) Emit(ctx context.Context, win *domain.ProcessedWindow) error {
	rows := Rows(win)
	if len(rows) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(c.w, 2, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Time\tLongitude\tLatitude\tTransect\tMiles\tSeabed\tNASC\t% samples\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.5f\t%.5f\t%d\t%.0f\t%.1f\t%.2f\t%.1f\t\n",
			r.Time.Format("2006-01-02 15:04:05"),
			r.Longitude, r.Latitude, r.Transect, r.Miles, r.Seabed, r.NASC, r.PCT)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("%w: console: %v", domain.ErrDelivery, err)
	}
	return nil
}
