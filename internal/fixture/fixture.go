package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/carqueue/carqueue/internal/backend"
	"github.com/carqueue/carqueue/internal/config"
	"github.com/carqueue/carqueue/internal/logging"
	"github.com/carqueue/carqueue/internal/queue"
)

// Option customizes [Setup].
type Option func(*setupOptions)

type setupOptions struct {
	output  io.Writer
	backend backend.Backend
}

// OptOutput sets the console log writer.
func OptOutput(w io.Writer) Option {
	return func(o *setupOptions) { o.output = w }
}

// OptBackend replaces the backend selected by the settings.
func OptBackend(b backend.Backend) Option {
	return func(o *setupOptions) { o.backend = b }
}

// Environment is everything a scenario runs against.
type Environment struct {
	Settings *config.Settings
	Log      *slog.Logger
	Backend  backend.Backend
	Client   *queue.Client

	mu       sync.Mutex
	after    []func(context.Context) error
	tornDown bool
}

// After registers a cleanup function; they run in reverse registration order on [Environment.Teardown].
func (e *Environment) After(fn func(context.Context) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.after = append(e.after, fn)
}

// Teardown runs the registered cleanup functions. Calls after the first do nothing.
func (e *Environment) Teardown(ctx context.Context) error {
	e.mu.Lock()
	if e.tornDown {
		e.mu.Unlock()
		return nil
	}
	e.tornDown = true
	after := e.after
	e.after = nil
	e.mu.Unlock()

	var errs []error
	for i := len(after) - 1; i >= 0; i-- {
		if err := after[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup starts the backend, builds the queue client, creates the queue and resolves its url.
//
// On error everything acquired so far is torn down before returning.
func Setup(ctx context.Context, cfg *config.Settings, opts ...Option) (env *Environment, err error) {
	var options setupOptions
	for _, opt := range opts {
		opt(&options)
	}
	created := &Environment{Settings: cfg}
	defer func() {
		if err != nil {
			_ = created.Teardown(context.WithoutCancel(ctx))
		}
	}()
	env = created

	log, err := logging.New(logging.Options{
		Format: cfg.LogFormat,
		Level:  cfg.Level,
		Output: options.output,
		Dir:    cfg.LogDir,
	})
	if err != nil {
		return nil, fmt.Errorf("fixture; unable to create logger: %w", err)
	}
	env.After(func(context.Context) error { return log.Close() })
	env.Log = log.Logger
	if log.Path != "" {
		env.Log.Info("writing log file", slog.String("path", log.Path))
	}
	env.Log.Info("aws mock flag", slog.Bool("mock_aws", cfg.MockAWS))

	env.Backend = options.backend
	if env.Backend == nil {
		env.Backend = newBackend(cfg, env.Log)
	}
	if err = env.Backend.Start(ctx); err != nil {
		return nil, err
	}
	env.After(env.Backend.Stop)

	clientOptions := env.Backend.Options()
	clientOptions.Logger = env.Log
	clientOptions.MaxNumberOfMessages = &cfg.MaxNumberOfMessages
	clientOptions.WaitTimeSeconds = &cfg.WaitTimeSeconds
	clientOptions.VisibilityTimeout = &cfg.VisibilityTimeoutSeconds
	clientOptions.DelaySeconds = &cfg.DelaySeconds
	if clientOptions.Region == "" {
		clientOptions.Region = cfg.Region
	}
	env.Client, err = queue.NewClient(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	env.After(func(context.Context) error {
		env.Log.Debug("releasing queue client")
		return nil
	})
	if err = env.Client.CreateQueue(ctx, cfg.QueueName); err != nil {
		return nil, err
	}
	if _, err = env.Client.ResolveQueueURL(ctx, cfg.QueueName); err != nil {
		return nil, err
	}
	return env, nil
}

func newBackend(cfg *config.Settings, log *slog.Logger) backend.Backend {
	if cfg.MockAWS {
		return backend.NewSimulated(log, cfg.Region)
	}
	return &backend.Localstack{
		Endpoint:       cfg.Endpoint,
		Region:         cfg.Region,
		StartCommand:   cfg.LocalstackStart,
		StopCommand:    cfg.LocalstackStop,
		HealthPath:     cfg.LocalstackHealthPath,
		StartupTimeout: cfg.StartupTimeout,
		Log:            log,
	}
}
