package delivery

import (
	"context"

	"postrelay/internal/routing"
)

// Sink is the opaque "deliver text to destination" capability. Failures are
// terminal for the event; the pipeline records the reason and never retries.
type Sink interface {
	SendMessage(ctx context.Context, dest routing.Destination, text string) error
}
