package ports

import (
	"context"

	"github.com/seaward-labs/echoline/internal/domain"
)

// Reporter delivers a processed window to a reporting sink: console summary,
// durable log append, rendered image, remote delivery.
//
// The driver guarantees at most one Emit call per successfully scheduled
// window, in increasing distance/time order. Delivery failures are returned
// as errors wrapping domain.ErrDelivery; the driver logs them and continues.
type Reporter interface {
	Emit(ctx context.Context, win *domain.ProcessedWindow) error
}
