package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eigend/internal/events"
)

func startWatcher(t *testing.T, interval time.Duration) (string, *events.MemoryPublisher) {
	t.Helper()
	dir := t.TempDir()
	pub := events.NewMemoryPublisher()
	w := New(Config{Dir: dir, Publisher: pub, Interval: interval})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher time to register before the test mutates dir.
	time.Sleep(100 * time.Millisecond)
	return dir, pub
}

func TestWatcher_EmitsOnCreate(t *testing.T) {
	dir, pub := startWatcher(t, 50*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.gguf"), []byte("x"), 0o644))
	require.Eventually(t, func() bool { return len(pub.Named(events.ModelsChanged)) > 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestWatcher_WatchesNewSubdirectories(t *testing.T) {
	dir, pub := startWatcher(t, 10*time.Millisecond)
	sub := filepath.Join(dir, "tiny")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return len(pub.Named(events.ModelsChanged)) > 0 }, 3*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	before := len(pub.Named(events.ModelsChanged))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "tiny.gguf"), []byte("x"), 0o644))
	require.Eventually(t, func() bool { return len(pub.Named(events.ModelsChanged)) > before }, 3*time.Second, 10*time.Millisecond)
}

func TestWatcher_ThrottlesBursts(t *testing.T) {
	dir, pub := startWatcher(t, 500*time.Millisecond)
	for i := 0; i < 20; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f.gguf"), []byte{byte(i)}, 0o644))
	}
	// One leading event, then one trailing event after the interval.
	require.Eventually(t, func() bool { return len(pub.Named(events.ModelsChanged)) == 2 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(700 * time.Millisecond)
	require.Len(t, pub.Named(events.ModelsChanged), 2)
}
