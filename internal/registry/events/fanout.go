package events

import (
	"context"
	"errors"

	"assetd/internal/registry/models"
	"assetd/internal/registry/ports"
)

// Fanout publishes every event to each publisher in order. A failing
// publisher does not stop delivery to the others; all errors are joined.
type Fanout []ports.Publisher

func (f Fanout) Publish(ctx context.Context, event models.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
