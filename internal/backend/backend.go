package backend

import (
	"context"

	"github.com/carqueue/carqueue/internal/queue"
)

// Backend is a queueing service that can be started and stopped around a suite.
type Backend interface {
	Start(context.Context) error
	Stop(context.Context) error
	// Options returns the queue client options that reach the backend.
	Options() queue.Options
}
