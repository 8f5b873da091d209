package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockUntilCancelled(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestStartRejectsDuplicateName(t *testing.T) {
	m := NewManager(nil)

	require.NoError(t, m.Start("sweep", blockUntilCancelled))
	require.True(t, m.Running("sweep"))

	err := m.Start("sweep", blockUntilCancelled)
	var already *ErrAlreadyRunning
	require.ErrorAs(t, err, &already)
	assert.Equal(t, "sweep", already.Name)

	require.NoError(t, m.Stop("sweep"))
}

func TestStopCancelsRunner(t *testing.T) {
	m := NewManager(nil)

	cancelled := make(chan struct{})
	require.NoError(t, m.Start("sweep", func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return nil
	}))

	require.NoError(t, m.Stop("sweep"))
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not cancelled")
	}
	assert.False(t, m.Running("sweep"))
}

func TestStopUnknownJob(t *testing.T) {
	m := NewManager(nil)
	require.Error(t, m.Stop("nope"))
}

func TestJobRemovedOnCompletion(t *testing.T) {
	var mu sync.Mutex
	var events []string
	m := NewManager(func(s string) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	})

	require.NoError(t, m.Start("once", func(ctx context.Context) error {
		return nil
	}))

	require.Eventually(t, func() bool {
		return !m.Running("once")
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, events, "running:once")
	assert.Contains(t, events, "done:once")
}

func TestFailedJobReportsError(t *testing.T) {
	var mu sync.Mutex
	var events []string
	m := NewManager(func(s string) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	})

	require.NoError(t, m.Start("bad", func(ctx context.Context) error {
		return errors.New("boom")
	}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "error:bad:boom" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListAndStatus(t *testing.T) {
	m := NewManager(nil)
	assert.Equal(t, "No jobs are running.", m.Status())

	require.NoError(t, m.Start("b-job", blockUntilCancelled))
	require.NoError(t, m.Start("a-job", blockUntilCancelled))

	assert.Equal(t, []string{"a-job", "b-job"}, m.List())
	assert.Equal(t, "Running jobs: a-job, b-job", m.Status())

	m.StopAll()
	assert.Empty(t, m.List())
}
