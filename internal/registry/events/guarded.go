package events

import (
	"context"
	"log/slog"

	"assetd/internal/registry/models"
	"assetd/internal/registry/ports"
	"assetd/pkg/platform/circuit"
)

// Guarded wraps a remote publisher with a circuit breaker. While the
// breaker is open, events are not sent and Publish returns circuit.ErrOpen
// immediately instead of waiting on a broker that is known to be down.
type Guarded struct {
	next    ports.Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(next ports.Publisher, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Publish(ctx context.Context, event models.Event) error {
	if !g.breaker.Allow() {
		return circuit.ErrOpen
	}
	if err := g.next.Publish(ctx, event); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened && g.logger != nil {
			g.logger.WarnContext(ctx, "event publisher circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed && g.logger != nil {
		g.logger.InfoContext(ctx, "event publisher circuit closed",
			"breaker", g.breaker.Name(),
		)
	}
	return nil
}
