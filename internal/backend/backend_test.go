package backend

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carqueue/carqueue/internal/queue"
)

func Test_Simulated(t *testing.T) {
	b := NewSimulated(nil, "us-east-1")
	ctx := t.Context()
	require.NoError(t, b.Start(ctx))

	opts := b.Options()
	require.True(t, opts.MockAWS)
	require.NotNil(t, opts.HTTPClient)

	client, err := queue.NewClient(ctx, opts)
	require.NoError(t, err)
	require.NoError(t, client.CreateQueue(ctx, "cars"))
	_, ok := b.Server().Queues().GetQueueByName("cars")
	require.True(t, ok)

	require.NoError(t, b.Stop(ctx))
	_, ok = b.Server().Queues().GetQueueByName("cars")
	require.False(t, ok)
}

func Test_Localstack_WaitHealthy(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		assert.Equal(t, DefaultHealthPath, req.URL.Path)
		if atomic.AddInt32(&calls, 1) < 3 {
			rw.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		rw.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	l := &Localstack{
		Endpoint:       srv.URL,
		PollInterval:   time.Millisecond,
		StartupTimeout: 5 * time.Second,
	}
	require.NoError(t, l.WaitHealthy(t.Context()))
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func Test_Localstack_WaitHealthy_timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	l := &Localstack{
		Endpoint:       srv.URL,
		PollInterval:   5 * time.Millisecond,
		StartupTimeout: 50 * time.Millisecond,
	}
	err := l.WaitHealthy(t.Context())
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func Test_Localstack_StartStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	marker := filepath.Join(t.TempDir(), "stopped")
	l := &Localstack{
		Endpoint:     srv.URL,
		StartCommand: []string{"true"},
		StopCommand:  []string{"touch", marker},
		PollInterval: time.Millisecond,
	}
	ctx := t.Context()
	require.NoError(t, l.Start(ctx))
	require.NoError(t, l.Stop(ctx))
	_, err := os.Stat(marker)
	require.NoError(t, err)

	opts := l.Options()
	require.False(t, opts.MockAWS)
	require.Equal(t, srv.URL, opts.Endpoint)
}

func Test_Localstack_Start_commandFails(t *testing.T) {
	l := &Localstack{
		StartCommand: []string{"false"},
	}
	require.Error(t, l.Start(t.Context()))
}
