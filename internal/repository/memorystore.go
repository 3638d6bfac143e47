package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"hitl-mcp/backend/pkg/models"
)

// MemoryWorkflowStore is an in-memory implementation of the WorkflowStore
// interface. Records live for the lifetime of the process unless pruned.
type MemoryWorkflowStore struct {
	mu      sync.RWMutex
	records map[string]*record
	order   []string // ids in creation order
}

// record pairs a workflow with its own mutex so that updates to the same id
// are serialized without blocking updates to other ids.
type record struct {
	mu sync.Mutex
	wf *models.Workflow
}

// NewMemoryWorkflowStore creates a new MemoryWorkflowStore.
func NewMemoryWorkflowStore() *MemoryWorkflowStore {
	return &MemoryWorkflowStore{
		records: make(map[string]*record),
	}
}

// Create allocates a fresh workflow in the initial status.
func (s *MemoryWorkflowStore) Create(ctx context.Context, kind models.WorkflowKind, task string) (*models.Workflow, error) {
	now := time.Now().UTC()
	wf := &models.Workflow{
		ID:              uuid.New().String(),
		Kind:            kind,
		Status:          models.StatusCreated,
		TaskDescription: task,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.mu.Lock()
	s.records[wf.ID] = &record{wf: wf}
	s.order = append(s.order, wf.ID)
	s.mu.Unlock()

	return wf.Clone(), nil
}

// Get returns a snapshot of the workflow with the given id.
func (s *MemoryWorkflowStore) Get(ctx context.Context, id string) (*models.Workflow, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.wf.Clone(), nil
}

// Update applies mutate to a copy of the record under the record lock and
// commits the copy only on success, so a failed mutation leaves the stored
// record fully intact and concurrent updates to one id are linearized.
func (s *MemoryWorkflowStore) Update(ctx context.Context, id string, mutate func(*models.Workflow) error) (*models.Workflow, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	cp := rec.wf.Clone()
	if err := mutate(cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = time.Now().UTC()
	rec.wf = cp

	return cp.Clone(), nil
}

// ListByStatus returns snapshots of all workflows in the given status,
// ordered by creation time.
func (s *MemoryWorkflowStore) ListByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error) {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.order))
	for _, id := range s.order {
		if rec, ok := s.records[id]; ok {
			recs = append(recs, rec)
		}
	}
	s.mu.RUnlock()

	var out []*models.Workflow
	for _, rec := range recs {
		rec.mu.Lock()
		if rec.wf.Status == status {
			out = append(out, rec.wf.Clone())
		}
		rec.mu.Unlock()
	}
	return out, nil
}

// PruneTerminal removes terminal workflows last updated before the cutoff.
func (s *MemoryWorkflowStore) PruneTerminal(ctx context.Context, cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		rec.mu.Lock()
		prune := rec.wf.Status.Terminal() && rec.wf.UpdatedAt.Before(cutoff)
		rec.mu.Unlock()
		if prune {
			delete(s.records, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}
