package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/carqueue/carqueue/internal/queue"
)

// Localstack defaults.
const (
	DefaultHealthPath     = "/_localstack/health"
	DefaultStartupTimeout = 90 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

var (
	DefaultStartCommand = []string{"localstack", "start", "-d"}
	DefaultStopCommand  = []string{"localstack", "stop"}
)

var _ Backend = (*Localstack)(nil)

// Localstack runs localstack as an external process.
//
// Zero valued fields fall back to the package defaults.
type Localstack struct {
	Endpoint       string
	Region         string
	StartCommand   []string
	StopCommand    []string
	HealthPath     string
	StartupTimeout time.Duration
	PollInterval   time.Duration
	HTTPClient     *http.Client
	Log            *slog.Logger
}

// Start runs the start command then waits for the health endpoint to answer.
func (l *Localstack) Start(ctx context.Context) error {
	l.log().Info("starting localstack", slog.String("command", strings.Join(l.startCommand(), " ")))
	if err := l.run(ctx, l.startCommand()); err != nil {
		return fmt.Errorf("backend; unable to start localstack: %w", err)
	}
	return l.WaitHealthy(ctx)
}

// WaitHealthy polls the health endpoint until it responds with a 200 or the startup timeout elapses.
func (l *Localstack) WaitHealthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.startupTimeout())
	defer cancel()

	healthURL := strings.TrimSuffix(l.endpoint(), "/") + l.healthPath()
	limiter := rate.NewLimiter(rate.Every(l.pollInterval()), 1)
	var lastErr error
	for {
		if err := limiter.Wait(ctx); err != nil {
			if lastErr != nil {
				return fmt.Errorf("backend; localstack did not become healthy: %w", errors.Join(err, lastErr))
			}
			return fmt.Errorf("backend; localstack did not become healthy: %w", err)
		}
		lastErr = l.checkHealth(ctx, healthURL)
		if lastErr == nil {
			l.log().Info("localstack healthy", slog.String("health_url", healthURL))
			return nil
		}
		l.log().Debug("localstack not yet healthy", slog.Any("err", lastErr))
	}
}

// Stop runs the stop command.
func (l *Localstack) Stop(ctx context.Context) error {
	l.log().Info("stopping localstack", slog.String("command", strings.Join(l.stopCommand(), " ")))
	if err := l.run(ctx, l.stopCommand()); err != nil {
		return fmt.Errorf("backend; unable to stop localstack: %w", err)
	}
	return nil
}

// Options implements [Backend].
func (l *Localstack) Options() queue.Options {
	return queue.Options{
		Endpoint: l.endpoint(),
		Region:   l.Region,
		Logger:   l.log(),
	}
}

func (l *Localstack) checkHealth(ctx context.Context, healthURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return err
	}
	res, err := l.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status code: %d", res.StatusCode)
	}
	return nil
}

func (l *Localstack) run(ctx context.Context, command []string) error {
	if len(command) == 0 {
		return errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		l.log().Debug("command output", slog.String("command", command[0]), slog.String("output", strings.TrimSpace(string(output))))
	}
	return err
}

func (l *Localstack) endpoint() string {
	if l.Endpoint != "" {
		return l.Endpoint
	}
	return queue.DefaultEndpoint
}

func (l *Localstack) startCommand() []string {
	if len(l.StartCommand) > 0 {
		return l.StartCommand
	}
	return DefaultStartCommand
}

func (l *Localstack) stopCommand() []string {
	if len(l.StopCommand) > 0 {
		return l.StopCommand
	}
	return DefaultStopCommand
}

func (l *Localstack) healthPath() string {
	if l.HealthPath != "" {
		return l.HealthPath
	}
	return DefaultHealthPath
}

func (l *Localstack) startupTimeout() time.Duration {
	if l.StartupTimeout > 0 {
		return l.StartupTimeout
	}
	return DefaultStartupTimeout
}

func (l *Localstack) pollInterval() time.Duration {
	if l.PollInterval > 0 {
		return l.PollInterval
	}
	return DefaultPollInterval
}

func (l *Localstack) httpClient() *http.Client {
	if l.HTTPClient != nil {
		return l.HTTPClient
	}
	return http.DefaultClient
}

func (l *Localstack) log() *slog.Logger {
	if l.Log != nil {
		return l.Log
	}
	return slog.Default()
}
