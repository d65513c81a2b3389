package ports

import (
	"context"

	"github.com/ghalamif/ProbeFlow/internal/domain"
)

// Sink applies the side effects for one delivered record. Implementations must
// honour ctx; a sink that blocks stalls backpressure all the way to the probe.
type Sink interface {
	Write(ctx context.Context, r *domain.Record) error
	Name() string
}
