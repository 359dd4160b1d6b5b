package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// EnvPrefix prefixes every environment variable read by [Parse].
const EnvPrefix = "CARQUEUE_"

// Settings is the configuration of a suite run.
type Settings struct {
	// MockAWS selects the in process simulated backend over localstack.
	MockAWS bool `env:"MOCK_AWS" envDefault:"true"`

	QueueName string `env:"QUEUE_NAME" envDefault:"cars" validate:"required,max=80"`
	Endpoint  string `env:"ENDPOINT" envDefault:"http://localhost:4566" validate:"required,url"`
	Region    string `env:"REGION" envDefault:"us-east-1" validate:"required"`

	// FixturePath is read from disk when set, otherwise the bundled cars fixture is used.
	FixturePath string `env:"FIXTURE_PATH"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=json text"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir    string `env:"LOG_DIR"`

	WaitTimeSeconds          int32 `env:"WAIT_TIME_SECONDS" envDefault:"10" validate:"gte=0,lte=20"`
	MaxNumberOfMessages      int32 `env:"MAX_NUMBER_OF_MESSAGES" envDefault:"10" validate:"gte=1,lte=10"`
	VisibilityTimeoutSeconds int32 `env:"VISIBILITY_TIMEOUT_SECONDS" envDefault:"60" validate:"gte=0,lte=43200"`
	DelaySeconds             int32 `env:"DELAY_SECONDS" envDefault:"0" validate:"gte=0,lte=900"`

	LocalstackStartCommand string `env:"LOCALSTACK_START_COMMAND" envDefault:"localstack start -d"`
	LocalstackStopCommand  string `env:"LOCALSTACK_STOP_COMMAND" envDefault:"localstack stop"`
	LocalstackHealthPath   string `env:"LOCALSTACK_HEALTH_PATH" envDefault:"/_localstack/health"`
	StartupTimeoutSeconds  int    `env:"STARTUP_TIMEOUT_SECONDS" envDefault:"90" validate:"gt=0"`

	// Derived in normalize, not loaded from env directly.
	Level           slog.Level    `env:"-"`
	LocalstackStart []string      `env:"-"`
	LocalstackStop  []string      `env:"-"`
	StartupTimeout  time.Duration `env:"-"`
}

// Parse loads settings from the process environment, validates and normalizes them.
func Parse() (*Settings, error) {
	return ParseEnvironment(nil)
}

// ParseEnvironment is [Parse] over a given environment; a nil map reads the process environment.
func ParseEnvironment(environment map[string]string) (*Settings, error) {
	var cfg Settings
	opts := env.Options{Prefix: EnvPrefix}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("config; failed to parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate performs all required configuration checks.
func (c *Settings) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config; invalid settings: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("config; invalid log level: %w", err)
	}
	if !c.MockAWS {
		if len(strings.Fields(c.LocalstackStartCommand)) == 0 {
			return errors.New("config; LOCALSTACK_START_COMMAND is required when MOCK_AWS is false")
		}
		if len(strings.Fields(c.LocalstackStopCommand)) == 0 {
			return errors.New("config; LOCALSTACK_STOP_COMMAND is required when MOCK_AWS is false")
		}
	}
	return nil
}

// Normalize sets the derived fields; call it again after changing the raw fields.
func (c *Settings) Normalize() {
	_ = c.Level.UnmarshalText([]byte(c.LogLevel))
	c.LocalstackStart = strings.Fields(c.LocalstackStartCommand)
	c.LocalstackStop = strings.Fields(c.LocalstackStopCommand)
	c.StartupTimeout = time.Duration(c.StartupTimeoutSeconds) * time.Second
}
