package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bidflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bot:\n  bid_limit: 1\n"), 0600))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg }, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("bot:\n  bid_limit: 42\n"), 0600))

	select {
	case cfg := <-reloaded:
		require.Equal(t, 42, cfg.Bot.BidLimit)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcher_KeepsPreviousOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bidflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bot:\n  bid_limit: 1\n"), 0600))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg }, nil)
	require.NoError(t, err)
	defer w.Close()

	// Invalid config: bid limit must be positive.
	require.NoError(t, os.WriteFile(path, []byte("bot:\n  bid_limit: -5\n"), 0600))

	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config should not be delivered, got bid_limit=%d", cfg.Bot.BidLimit)
	case <-time.After(time.Second):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bidflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bot:\n  bid_limit: 1\n"), 0600))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg }, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0600))

	select {
	case <-reloaded:
		t.Fatal("unrelated file write should not trigger reload")
	case <-time.After(time.Second):
	}
}
