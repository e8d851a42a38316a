package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerHandlesSubmittedTasks(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	done := make(chan struct{}, 2)

	r := NewRunner("test", func(ctx context.Context, task Task) error {
		mu.Lock()
		seen = append(seen, task.ID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, Options{Workers: 2})
	r.Start(context.Background())
	defer r.Stop()

	require.NoError(t, r.Submit(Task{ID: "task-1", Kind: "archive"}))
	require.NoError(t, r.Submit(Task{ID: "task-2", Kind: "archive"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task was not handled")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"task-1", "task-2"}, seen)
}

func TestRunnerRetriesFailedTask(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	r := NewRunner("test", func(ctx context.Context, task Task) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return fmt.Errorf("transient")
		}
		close(done)
		return nil
	}, Options{Workers: 1, RetryWait: 10 * time.Millisecond})
	r.Start(context.Background())
	defer r.Stop()

	require.NoError(t, r.Submit(Task{ID: "task-1", Kind: "archive"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not retried")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

func TestRunnerSubmitBeforeStart(t *testing.T) {
	r := NewRunner("test", func(ctx context.Context, task Task) error { return nil }, Options{})
	require.Error(t, r.Submit(Task{ID: "task-1"}))
}
