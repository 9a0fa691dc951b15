package events

import (
	"context"
	"log/slog"

	"assetd/internal/registry/models"
	"assetd/pkg/requestcontext"
)

// LogPublisher writes each event as one structured log line.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event models.Event) error {
	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	args := []any{
		"event", string(env.Type),
		"identity", env.Identity,
		"log_type", "registry_event",
	}
	if env.Owner != "" {
		args = append(args, "owner", env.Owner)
	}
	if env.From != "" {
		args = append(args, "from", env.From, "to", env.To)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	p.logger.InfoContext(ctx, string(env.Type), args...)
	return nil
}
