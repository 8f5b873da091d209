// /internal/storage/storage.go
package storage

import (
	"encoding/json"

	"xerobot/datastore"
)

// Storage is the typed view over the datastore document. The document
// is a flat userID -> integer score mapping so it stays human-editable;
// keys holding anything other than a number are ignored on read and
// preserved on write.
type Storage struct {
	ds *datastore.DataStore
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func NewWithConfig(cfg *datastore.Config) (*Storage, error) {
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// SetScore records a single user's score.
func (s *Storage) SetScore(userID string, score int) {
	s.ds.Add(userID, score)
}

// Score returns a user's stored score, if any.
func (s *Storage) Score(userID string) (int, bool) {
	raw, ok := s.ds.Get(userID)
	if !ok {
		return 0, false
	}
	return asInt(raw)
}

// Scores returns every stored user score. Non-numeric entries in the
// document are skipped.
func (s *Storage) Scores() map[string]int {
	out := make(map[string]int)
	for key, raw := range s.ds.All() {
		if n, ok := asInt(raw); ok {
			out[key] = n
		}
	}
	return out
}

// ReplaceScores overwrites all numeric entries with the given mapping,
// keeping any foreign keys the document may carry.
func (s *Storage) ReplaceScores(scores map[string]int) {
	merged := make(map[string]any)
	for key, raw := range s.ds.All() {
		if _, ok := asInt(raw); !ok {
			merged[key] = raw
		}
	}
	for userID, score := range scores {
		merged[userID] = score
	}
	s.ds.ReplaceAll(merged)
}

// Save forces an immediate durable write of the document.
func (s *Storage) Save() error {
	return s.ds.SaveToFile()
}

// asInt normalizes the numeric shapes json.Unmarshal may hand back.
func asInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	}
	return 0, false
}
