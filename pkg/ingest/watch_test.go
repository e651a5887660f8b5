package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReturnsOnCancelWithLargeBacklog(t *testing.T) {
	dir := t.TempDir()
	// More files than the queue can hold at once.
	for i := 0; i < 300; i++ {
		path := filepath.Join(dir, fmt.Sprintf("resume_%03d.txt", i))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	orchestrator := &Orchestrator{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	w := NewWatcher(orchestrator, dir, "all")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestWatchSkipsDisallowedBacklogFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.xlsx"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.txt"), 0o755))

	orchestrator := &Orchestrator{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	w := NewWatcher(orchestrator, dir, "all")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
