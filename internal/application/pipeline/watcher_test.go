package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcherReportsOnlyItsFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "timeline.json")

	fw, err := NewFileWatcher(target)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0644))

	select {
	case ev, ok := <-fw.Events():
		require.True(t, ok)
		assert.Equal(t, target, filepath.Clean(ev.Path))
		assert.NotEmpty(t, ev.Operation)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the watched file")
	}

	require.NoError(t, fw.Close())
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-fw.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel not closed after Close")
		}
	}
}

func TestFileWatcherMissingDirectory(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "absent", "timeline.json"))
	assert.Error(t, err)
}
