package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hitl-mcp/backend/pkg/models"
)

func TestMemoryWorkflowStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWorkflowStore()

	wf, err := store.Create(ctx, models.KindContentApproval, "write a blog post")
	require.NoError(t, err)
	require.NotEmpty(t, wf.ID)
	assert.Equal(t, models.StatusCreated, wf.Status)
	assert.Equal(t, "write a blog post", wf.TaskDescription)
	assert.False(t, wf.CreatedAt.IsZero())

	got, err := store.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, wf.ID, got.ID)
	assert.Equal(t, wf.Kind, got.Kind)
}

func TestMemoryWorkflowStore_GetUnknownID(t *testing.T) {
	store := NewMemoryWorkflowStore()

	_, err := store.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryWorkflowStore_GetReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWorkflowStore()

	wf, err := store.Create(ctx, models.KindTaskPlanning, "plan the launch")
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the store.
	snap, err := store.Get(ctx, wf.ID)
	require.NoError(t, err)
	snap.Status = models.StatusCompleted
	snap.History = append(snap.History, models.HistoryEntry{Action: models.ActionApprove})

	again, err := store.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreated, again.Status)
	assert.Empty(t, again.History)
}

func TestMemoryWorkflowStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWorkflowStore()

	wf, err := store.Create(ctx, models.KindContentApproval, "task")
	require.NoError(t, err)

	updated, err := store.Update(ctx, wf.ID, func(w *models.Workflow) error {
		w.Status = models.StatusAwaitingHumanInput
		w.GeneratedPayload = "draft"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingHumanInput, updated.Status)
	assert.Equal(t, "draft", updated.GeneratedPayload)
	assert.True(t, updated.UpdatedAt.After(wf.UpdatedAt) || updated.UpdatedAt.Equal(wf.UpdatedAt))

	got, err := store.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.GeneratedPayload)
}

func TestMemoryWorkflowStore_UpdateErrorLeavesRecordIntact(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWorkflowStore()

	wf, err := store.Create(ctx, models.KindContentApproval, "task")
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update(ctx, wf.ID, func(w *models.Workflow) error {
		w.Status = models.StatusCompleted
		w.GeneratedPayload = "partial"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreated, got.Status)
	assert.Empty(t, got.GeneratedPayload)
}

func TestMemoryWorkflowStore_UpdateUnknownID(t *testing.T) {
	store := NewMemoryWorkflowStore()

	_, err := store.Update(context.Background(), "does-not-exist", func(w *models.Workflow) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryWorkflowStore_ListByStatusOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWorkflowStore()

	var ids []string
	for i := 0; i < 5; i++ {
		wf, err := store.Create(ctx, models.KindContentApproval, "task")
		require.NoError(t, err)
		ids = append(ids, wf.ID)
		_, err = store.Update(ctx, wf.ID, func(w *models.Workflow) error {
			w.Status = models.StatusAwaitingHumanInput
			return nil
		})
		require.NoError(t, err)
	}

	// Finish the middle one; it must drop out of the waiting list.
	_, err := store.Update(ctx, ids[2], func(w *models.Workflow) error {
		w.Status = models.StatusCompleted
		return nil
	})
	require.NoError(t, err)

	waiting, err := store.ListByStatus(ctx, models.StatusAwaitingHumanInput)
	require.NoError(t, err)
	require.Len(t, waiting, 4)
	assert.Equal(t, []string{ids[0], ids[1], ids[3], ids[4]}, []string{
		waiting[0].ID, waiting[1].ID, waiting[2].ID, waiting[3].ID,
	})
}

func TestMemoryWorkflowStore_ConcurrentUpdatesSameID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWorkflowStore()

	wf, err := store.Create(ctx, models.KindContentApproval, "task")
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, wf.ID, func(w *models.Workflow) error {
				w.History = append(w.History, models.HistoryEntry{Action: models.ActionEdit, At: time.Now()})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, n)
}

func TestMemoryWorkflowStore_ConcurrentCreatesDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWorkflowStore()

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			wf, err := store.Create(ctx, models.KindTaskPlanning, "task")
			assert.NoError(t, err)
			ids <- wf.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate workflow id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestMemoryWorkflowStore_PruneTerminal(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWorkflowStore()

	done, err := store.Create(ctx, models.KindContentApproval, "task")
	require.NoError(t, err)
	_, err = store.Update(ctx, done.ID, func(w *models.Workflow) error {
		w.Status = models.StatusCompleted
		return nil
	})
	require.NoError(t, err)

	waiting, err := store.Create(ctx, models.KindContentApproval, "task")
	require.NoError(t, err)
	_, err = store.Update(ctx, waiting.ID, func(w *models.Workflow) error {
		w.Status = models.StatusAwaitingHumanInput
		return nil
	})
	require.NoError(t, err)

	// Cutoff in the future: every terminal workflow qualifies, waiting
	// workflows are never pruned.
	removed := store.PruneTerminal(ctx, time.Now().UTC().Add(time.Hour))
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, done.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, waiting.ID)
	assert.NoError(t, err)

	// Cutoff in the past: nothing further to prune.
	assert.Equal(t, 0, store.PruneTerminal(ctx, time.Now().UTC().Add(-time.Hour)))
}
