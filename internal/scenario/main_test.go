package scenario

import (
	"bytes"
	"context"
	"flag"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carqueue/carqueue/internal/config"
	"github.com/carqueue/carqueue/internal/fixture"
)

var flagMockAWS = flag.Bool("mock-aws", true, "If the simulated backend should be used instead of localstack")

// mockAWSFlagSet reports if -mock-aws was passed explicitly, which wins over CARQUEUE_MOCK_AWS.
func mockAWSFlagSet() (set bool) {
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "mock-aws" {
			set = true
		}
	})
	return
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	cfg, err := config.Parse()
	require.NoError(t, err)
	if mockAWSFlagSet() {
		cfg.MockAWS = *flagMockAWS
	}
	cfg.WaitTimeSeconds = 1
	cfg.Normalize()
	return cfg
}

func testSimulatedEnvironment(t *testing.T) (*fixture.Environment, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.ParseEnvironment(map[string]string{
		"CARQUEUE_WAIT_TIME_SECONDS": "0",
	})
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	env, err := fixture.Setup(t.Context(), cfg, fixture.OptOutput(buf))
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Teardown(context.Background()) })
	return env, buf
}
