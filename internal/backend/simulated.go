package backend

import (
	"context"
	"log/slog"

	"github.com/carqueue/carqueue/internal/queue"
	"github.com/carqueue/carqueue/internal/sqsfake"
)

var _ Backend = (*Simulated)(nil)

// NewSimulated returns an in process simulated backend.
func NewSimulated(log *slog.Logger, region string, opts ...sqsfake.Option) *Simulated {
	if log == nil {
		log = slog.Default()
	}
	opts = append([]sqsfake.Option{sqsfake.OptLogger(log)}, opts...)
	return &Simulated{
		log:    log,
		region: region,
		server: sqsfake.NewServer(opts...),
	}
}

// Simulated serves queue requests from an in memory [sqsfake.Server].
type Simulated struct {
	log    *slog.Logger
	region string
	server *sqsfake.Server
}

// Server returns the simulator.
func (s *Simulated) Server() *sqsfake.Server { return s.server }

// Start implements [Backend]; the simulator needs no startup.
func (s *Simulated) Start(_ context.Context) error {
	s.log.Info("creating mocked sqs client")
	return nil
}

// Stop drops every simulated queue.
func (s *Simulated) Stop(_ context.Context) error {
	s.log.Info("stopping simulated backend")
	s.server.Close()
	return nil
}

// Options implements [Backend].
func (s *Simulated) Options() queue.Options {
	return queue.Options{
		MockAWS:    true,
		Region:     s.region,
		HTTPClient: s.server.Client(),
		Logger:     s.log,
	}
}
