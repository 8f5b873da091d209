package reputation_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"xerobot/datastore"
	"xerobot/internal/reputation"
	"xerobot/internal/storage"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datastore.json")
	store, err := storage.NewWithConfig(&datastore.Config{FilePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOnMessageAwardsPoints(t *testing.T) {
	ledger := reputation.New(newTestStore(t))
	defer ledger.Close()

	t0 := time.Now()

	// Unknown user reads as the floor.
	require.Equal(t, 100, ledger.Get("u1"))

	// 1 + 25/10 = 3 points on top of the floor.
	score := ledger.OnMessage("u1", 25, t0)
	require.Equal(t, 103, score)
	require.Equal(t, 103, ledger.Get("u1"))
}

func TestScoreNeverLeavesClampRange(t *testing.T) {
	ledger := reputation.New(newTestStore(t))
	defer ledger.Close()

	t0 := time.Now()
	for i := 0; i < 200; i++ {
		ledger.OnMessage("chatty", 2000, t0)
	}
	require.Equal(t, 1000, ledger.Get("chatty"))

	// Decay for a very long time cannot push below the floor.
	for i := 0; i < 500; i++ {
		ledger.DecayPass(t0.Add(time.Duration(i+1) * time.Hour))
	}
	require.Equal(t, 100, ledger.Get("chatty"))
}

func TestDecayPass(t *testing.T) {
	ledger := reputation.New(newTestStore(t))
	defer ledger.Close()

	t0 := time.Now()
	ledger.OnMessage("u1", 95, t0) // 100 + 1 + 9 = 110

	// Active within the gap: untouched.
	changed := ledger.DecayPass(t0.Add(29 * time.Minute))
	require.False(t, changed)
	require.Equal(t, 110, ledger.Get("u1"))

	// Inactive beyond the gap: exactly one step.
	changed = ledger.DecayPass(t0.Add(31 * time.Minute))
	require.True(t, changed)
	require.Equal(t, 105, ledger.Get("u1"))
}

func TestDecayClampsAtFloor(t *testing.T) {
	ledger := reputation.New(newTestStore(t))
	defer ledger.Close()

	t0 := time.Now()
	ledger.OnMessage("u1", 25, t0) // 103

	changed := ledger.DecayPass(t0.Add(1900 * time.Second))
	require.True(t, changed)
	require.Equal(t, 100, ledger.Get("u1"))

	// Already at the floor: a further sweep changes nothing.
	changed = ledger.DecayPass(t0.Add(2 * time.Hour))
	require.False(t, changed)
	require.Equal(t, 100, ledger.Get("u1"))
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")

	store, err := storage.NewWithConfig(&datastore.Config{FilePath: path})
	require.NoError(t, err)

	ledger := reputation.New(store)
	t0 := time.Now()
	ledger.OnMessage("u1", 25, t0)
	ledger.OnMessage("u2", 250, t0)
	require.NoError(t, ledger.Close())
	require.NoError(t, store.Close())

	// Fresh storage and ledger from the same file.
	store2, err := storage.NewWithConfig(&datastore.Config{FilePath: path})
	require.NoError(t, err)
	defer store2.Close()

	ledger2 := reputation.New(store2)
	defer ledger2.Close()

	require.Equal(t, 103, ledger2.Get("u1"))
	require.Equal(t, 126, ledger2.Get("u2"))
	require.Equal(t, 2, ledger2.Count())
}

func TestLoadedScoresDoNotDecayImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")

	store, err := storage.NewWithConfig(&datastore.Config{FilePath: path})
	require.NoError(t, err)
	store.SetScore("u1", 500)
	require.NoError(t, store.Save())
	require.NoError(t, store.Close())

	store2, err := storage.NewWithConfig(&datastore.Config{FilePath: path})
	require.NoError(t, err)
	defer store2.Close()

	ledger := reputation.New(store2)
	defer ledger.Close()

	// Timestamps are seeded at load time, so a sweep right after
	// startup must not charge anyone.
	require.False(t, ledger.DecayPass(time.Now()))
	require.Equal(t, 500, ledger.Get("u1"))
}
