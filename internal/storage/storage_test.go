package storage_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"xerobot/datastore"
	"xerobot/internal/storage"
)

func open(t *testing.T, path string) *storage.Storage {
	t.Helper()
	s, err := storage.NewWithConfig(&datastore.Config{FilePath: path})
	require.NoError(t, err)
	return s
}

func TestScoresRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")

	s := open(t, path)
	s.SetScore("u1", 150)
	s.SetScore("u2", 999)
	require.NoError(t, s.Save())
	require.NoError(t, s.Close())

	s2 := open(t, path)
	defer s2.Close()
	require.Equal(t, map[string]int{"u1": 150, "u2": 999}, s2.Scores())

	score, ok := s2.Score("u1")
	require.True(t, ok)
	require.Equal(t, 150, score)

	_, ok = s2.Score("unknown")
	require.False(t, ok)
}

func TestForeignKeysIgnoredButPreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")
	seed := `{"u1": 150, "comment": "hand-edited note"}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	s := open(t, path)
	require.Equal(t, map[string]int{"u1": 150}, s.Scores())

	s.ReplaceScores(map[string]int{"u2": 400})
	require.NoError(t, s.Save())
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "hand-edited note", doc["comment"])
	require.EqualValues(t, 400, doc["u2"])
	require.NotContains(t, doc, "u1")
}
