package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/yt2blog/internal/config"
)

type mockServer struct {
	shutdownCalled bool
	stop           chan struct{}
}

func (m *mockServer) ListenAndServe() error {
	<-m.stop
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdownCalled = true
	close(m.stop)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:     "0",
		LogDir:   t.TempDir(),
		LogLevel: "error",
		WorkDir:  t.TempDir(),
		Transcript: config.TranscriptConfig{
			Languages: []string{"en"},
		},
		STT: config.STTConfig{
			BaseURL:         "http://127.0.0.1:1",
			PollInterval:    time.Second,
			PollMaxInterval: time.Second,
			PollMultiplier:  1,
			PollMaxAttempts: 1,
		},
		LLM:                config.LLMConfig{Provider: "groq"},
		Store:              config.StoreConfig{Backend: "memory", TTL: time.Hour, MaxSize: 10},
		RateLimitPerMinute: 5,
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Pipeline())
	assert.NotNil(t, a.Router())
	assert.Same(t, cfg, a.Config())
	assert.False(t, a.IsDebugMode())

	// the dated log file exists
	files, err := os.ReadDir(cfg.LogDir)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	// no LLM key: the service is up but not ready
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":false`)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "sqlite"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "STORE_BACKEND")
}

func TestRunShutsDownOnSignal(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	srv := &mockServer{stop: make(chan struct{})}
	a.server = srv

	go func() {
		time.Sleep(50 * time.Millisecond)
		a.stopChan <- syscall.SIGTERM
	}()

	require.NoError(t, a.Run())
	assert.True(t, srv.shutdownCalled)
}
