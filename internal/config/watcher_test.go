package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8090\n"), 0o600))

	var mu sync.Mutex
	var got []*Config
	w, err := NewWatcher(path, zap.NewNop(), func(cfg *Config) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, cfg)
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8181\n"), 0o600))

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 8181, got[len(got)-1].Server.Port)
}

func TestWatcherKeepsPreviousConfigOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8090\n"), 0o600))

	var mu sync.Mutex
	calls := 0
	w, err := NewWatcher(path, zap.NewNop(), func(cfg *Config) {
		mu.Lock()
		defer mu.Unlock()
		calls++
	})
	require.NoError(t, err)
	defer w.Close()

	// Invalid port: reload must be rejected without invoking the callback.
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -1\n"), 0o600))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
}

func TestNewWatcherValidation(t *testing.T) {
	_, err := NewWatcher("", zap.NewNop(), func(*Config) {})
	assert.Error(t, err)

	_, err = NewWatcher("/tmp/config.yaml", zap.NewNop(), nil)
	assert.Error(t, err)
}
