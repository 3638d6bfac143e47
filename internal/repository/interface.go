package repository

import (
	"context"
	"errors"
	"time"

	"hitl-mcp/backend/pkg/models"
)

// ErrNotFound is returned when no workflow exists for the requested id.
var ErrNotFound = errors.New("workflow not found")

// WorkflowStore is the registry of workflow records. Implementations must
// serialize mutations to the same id and keep mutations to different ids
// independent.
type WorkflowStore interface {
	// Create allocates a fresh workflow of the given kind in the initial
	// status and returns a snapshot of it.
	Create(ctx context.Context, kind models.WorkflowKind, task string) (*models.Workflow, error)
	// Get returns a snapshot of the workflow with the given id.
	Get(ctx context.Context, id string) (*models.Workflow, error)
	// Update applies mutate to a copy of the record and commits the copy
	// only if mutate returns nil. The committed snapshot is returned; on a
	// non-nil error the stored record is left untouched.
	Update(ctx context.Context, id string, mutate func(*models.Workflow) error) (*models.Workflow, error)
	// ListByStatus returns snapshots of all workflows in the given status,
	// ordered by creation time.
	ListByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error)
	// PruneTerminal removes terminal workflows last updated before the
	// cutoff and returns how many were removed.
	PruneTerminal(ctx context.Context, cutoff time.Time) int
}
