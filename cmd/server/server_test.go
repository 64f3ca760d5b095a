package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/config"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/database"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/monitoring"
)

const sampleCSV = `Country Name,Time,GDP growth (annual %),"Inflation, consumer prices (annual %)",Unemployment
Kenya,2021,7.6,6.1,5.7
Kenya,2022,4.9,7.7,5.6
Kenya,2023,5.6,7.7,..
`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func freePort(t testing.TB) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func testConfig(t testing.TB, withDB bool) *config.Config {
	t.Helper()

	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "wdi.csv"), []byte(sampleCSV), 0o644))

	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            freePort(t),
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Data: config.DataConfig{
			Dir:              dataDir,
			CacheTTL:         time.Minute,
			ResponseCacheTTL: time.Minute,
			JanitorInterval:  time.Minute,
		},
		DB: config.DatabaseConfig{
			Enabled:      withDB,
			Dir:          t.TempDir(),
			MaxOpenConns: 4,
			MaxIdleConns: 1,
		},
		RateLimit: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 100,
			Burst:             100,
			IdleTTL:           time.Minute,
		},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

func TestBuildDeps(t *testing.T) {
	logger := monitoring.NewLogger(io.Discard, "error")

	t.Run("result store disabled", func(t *testing.T) {
		cfg := testConfig(t, false)
		cfg.RateLimit.Enabled = false

		deps, closeDeps, err := buildDeps(context.Background(), cfg, logger)
		require.NoError(t, err)
		defer closeDeps()

		assert.Nil(t, deps.DB)
		assert.Nil(t, deps.Repository)
		assert.Nil(t, deps.Limiter)
		assert.NotNil(t, deps.Compression)
		assert.NotNil(t, deps.ResponseCache)
	})

	t.Run("result store enabled", func(t *testing.T) {
		cfg := testConfig(t, true)

		deps, closeDeps, err := buildDeps(context.Background(), cfg, logger)
		require.NoError(t, err)
		defer closeDeps()

		require.NotNil(t, deps.DB)
		assert.NotNil(t, deps.Repository)
		assert.NotNil(t, deps.Limiter)
		assert.FileExists(t, filepath.Join(cfg.DB.Dir, database.FileName))
	})

	t.Run("unusable store directory", func(t *testing.T) {
		cfg := testConfig(t, true)
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))
		cfg.DB.Dir = filepath.Join(blocker, "db")

		_, _, err := buildDeps(context.Background(), cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open result store")
	})
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	cfg := testConfig(t, true)
	logger := monitoring.NewLogger(io.Discard, "error")
	base := "http://" + cfg.Server.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, logger) }()

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := client.Get(base + "/api/datasets/wdi/entities")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Kenya")

	client.CloseIdleConnections()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_PortInUse(t *testing.T) {
	cfg := testConfig(t, false)
	l, err := net.Listen("tcp", cfg.Server.Addr())
	require.NoError(t, err)
	defer l.Close()

	err = run(context.Background(), cfg, monitoring.NewLogger(io.Discard, "error"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server failed")
}
