package fuelfinder_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelr/fuelr/internal/fuelfinder"
)

func TestSnapshotStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	store := fuelfinder.NewSnapshotStore(path)

	snapshot := &fuelfinder.Snapshot{
		UpdatedAt:  time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		LastSyncAt: time.Date(2026, 8, 31, 11, 59, 0, 0, time.UTC),
		Stations: map[string]*fuelfinder.StationRecord{
			"A": {NodeID: "A", TradingName: strPtr("Alpha")},
		},
	}

	require.NoError(t, store.Save(snapshot))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, snapshot.UpdatedAt.Equal(loaded.UpdatedAt))
	assert.True(t, snapshot.LastSyncAt.Equal(loaded.LastSyncAt))
	require.Contains(t, loaded.Stations, "A")
	assert.Equal(t, "Alpha", *loaded.Stations["A"].TradingName)
}

func TestSnapshotStore_MissingFileIsNoCache(t *testing.T) {
	store := fuelfinder.NewSnapshotStore(filepath.Join(t.TempDir(), "absent.json"))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSnapshotStore_MalformedContentIsNoCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := fuelfinder.NewSnapshotStore(path)
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSnapshotStore_StationlessContentIsNoCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"updatedAt":"2026-08-31T12:00:00Z"}`), 0o644))

	store := fuelfinder.NewSnapshotStore(path)
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
