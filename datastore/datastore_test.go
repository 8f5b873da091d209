package datastore_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"xerobot/datastore"
)

func newStore(t *testing.T, path string) *datastore.DataStore {
	t.Helper()
	ds, err := datastore.NewWithConfig(&datastore.Config{FilePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")

	ds := newStore(t, path)
	ds.Add("u1", 150)
	ds.Add("u2", 720)
	require.NoError(t, ds.SaveToFile())
	require.NoError(t, ds.Close())

	ds2 := newStore(t, path)
	v, ok := ds2.Get("u1")
	require.True(t, ok)
	require.EqualValues(t, 150, v)
	v, ok = ds2.Get("u2")
	require.True(t, ok)
	require.EqualValues(t, 720, v)
}

func TestMissingFileYieldsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "datastore.json")
	ds := newStore(t, path)
	require.Empty(t, ds.Keys())

	// The empty document exists on disk afterwards.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, "{}", string(data))
}

func TestCorruptFileYieldsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	ds := newStore(t, path)
	require.Empty(t, ds.Keys())
}

func TestAtomicReplaceNeverLeavesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")

	ds := newStore(t, path)
	ds.Add("key", "value")
	require.NoError(t, ds.SaveToFile())

	// Whatever is on disk must always parse as a complete document.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "value", doc["key"])

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")
	ds := newStore(t, path)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ds.Add("worker", n)
			require.NoError(t, ds.SaveToFile())
		}(i)
	}
	wg.Wait()

	// Last writer wins; the document is intact either way.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "worker")
}

func TestReplaceAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")
	ds := newStore(t, path)

	ds.Add("old", 1)
	ds.ReplaceAll(map[string]any{"new": 2})

	_, ok := ds.Get("old")
	require.False(t, ok)
	v, ok := ds.Get("new")
	require.True(t, ok)
	require.EqualValues(t, 2, v)
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")
	ds, err := datastore.NewWithConfig(&datastore.Config{FilePath: path})
	require.NoError(t, err)

	ds.Add("k", 1)
	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())

	// Mutations after close are dropped, not panics.
	ds.Add("late", 2)
	_, ok := ds.Get("late")
	require.False(t, ok)
}
