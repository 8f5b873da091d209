// Package reputation keeps the per-user activity ledger: every message
// earns points, inactivity bleeds them away, and the scores survive
// restarts through the storage snapshot.
package reputation

import (
	"context"
	"log"
	"sync"
	"time"

	"xerobot/internal/storage"
)

const (
	// ScoreFloor is both the starting score and the hard lower bound.
	ScoreFloor = 100
	// ScoreCeiling is the hard upper bound.
	ScoreCeiling = 1000

	// DecayAfter is the inactivity gap after which a sweep deducts points.
	DecayAfter = 30 * time.Minute
	// DecayStep is the deduction applied per qualifying sweep.
	DecayStep = 5
)

type record struct {
	score        int
	lastActiveAt time.Time
}

// Ledger is the in-memory score table. Mutations update memory
// synchronously and schedule a durable write in the background, so the
// message path never waits on disk.
type Ledger struct {
	mu      sync.Mutex
	records map[string]*record
	store   *storage.Storage

	saveCh chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Ledger seeded from the stored snapshot. Timestamps are
// not persisted; every loaded user starts its inactivity clock at load
// time.
func New(store *storage.Storage) *Ledger {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Ledger{
		records: make(map[string]*record),
		store:   store,
		saveCh:  make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}

	now := time.Now()
	for userID, score := range store.Scores() {
		l.records[userID] = &record{score: clamp(score), lastActiveAt: now}
	}

	l.wg.Add(1)
	go l.flusher()
	return l
}

// OnMessage awards points for one observed message: 1 point plus 1 per
// ten characters, capped at the ceiling. The in-memory score is updated
// before this returns; persistence happens asynchronously.
func (l *Ledger) OnMessage(userID string, messageLength int, now time.Time) int {
	points := 1 + messageLength/10

	l.mu.Lock()
	rec, ok := l.records[userID]
	if !ok {
		rec = &record{score: ScoreFloor}
		l.records[userID] = rec
	}
	rec.score = clamp(rec.score + points)
	rec.lastActiveAt = now
	score := rec.score
	l.mu.Unlock()

	l.scheduleSave()
	return score
}

// Get returns the user's score, or the floor when the user has never
// been seen. It never fails.
func (l *Ledger) Get(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.records[userID]; ok {
		return rec.score
	}
	return ScoreFloor
}

// Count returns the number of tracked users.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// DecayPass deducts DecayStep from every record inactive for more than
// DecayAfter, clamped at the floor. Returns whether anything changed;
// if so a durable write is scheduled. The sweep period must stay >= the
// inactivity gap, otherwise a single idle window would be charged more
// than once.
func (l *Ledger) DecayPass(now time.Time) bool {
	changed := false

	l.mu.Lock()
	for _, rec := range l.records {
		if now.Sub(rec.lastActiveAt) <= DecayAfter {
			continue
		}
		next := clamp(rec.score - DecayStep)
		if next != rec.score {
			rec.score = next
			changed = true
		}
	}
	l.mu.Unlock()

	if changed {
		l.scheduleSave()
	}
	return changed
}

// Flush synchronously writes the current scores to storage. Used on
// shutdown and after a recovered fault.
func (l *Ledger) Flush() error {
	l.store.ReplaceScores(l.snapshot())
	return l.store.Save()
}

// Close stops the background flusher and performs a final flush.
func (l *Ledger) Close() error {
	l.cancel()
	l.wg.Wait()
	return l.Flush()
}

func (l *Ledger) snapshot() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.records))
	for userID, rec := range l.records {
		out[userID] = rec.score
	}
	return out
}

// scheduleSave requests a background write. The channel holds one
// pending request; bursts of mutations coalesce into a single save.
func (l *Ledger) scheduleSave() {
	select {
	case l.saveCh <- struct{}{}:
	default:
	}
}

func (l *Ledger) flusher() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-l.saveCh:
			if err := l.Flush(); err != nil {
				log.Printf("[ERR] Ledger flush failed: %v", err)
			}
		}
	}
}

func clamp(score int) int {
	if score < ScoreFloor {
		return ScoreFloor
	}
	if score > ScoreCeiling {
		return ScoreCeiling
	}
	return score
}
