package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"hitl-mcp/backend/internal/logging"
	"hitl-mcp/backend/internal/repository"
	"hitl-mcp/backend/pkg/models"
)

// Sentinel errors for workflow operations. ErrNotFound lives in the
// repository package; everything else is an engine-level failure.
var (
	ErrInvalidInput       = errors.New("invalid human input")
	ErrInvalidAction      = errors.New("action not allowed for this workflow kind")
	ErrWorkflowNotWaiting = errors.New("workflow is not awaiting human input")
	ErrWorkflowTerminal   = errors.New("workflow already finished")
	ErrGenerator          = errors.New("generator failure")
)

const defaultGeneratorTimeout = 30 * time.Second

// WorkflowService owns the workflow state machine. All mutation goes through
// the store's Update primitive, so the service itself holds no locks.
type WorkflowService struct {
	store      repository.WorkflowStore
	gen        Generator
	genTimeout time.Duration
	logger     *logging.Logger

	started metric.Int64Counter
	resumed metric.Int64Counter
	failed  metric.Int64Counter
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(store repository.WorkflowStore, gen Generator, genTimeout time.Duration, logger *logging.Logger) *WorkflowService {
	if genTimeout <= 0 {
		genTimeout = defaultGeneratorTimeout
	}

	meter := otel.Meter("hitl-mcp/backend/workflow")
	started, _ := meter.Int64Counter("workflow.started")
	resumed, _ := meter.Int64Counter("workflow.resumed")
	failed, _ := meter.Int64Counter("workflow.failed")

	return &WorkflowService{
		store:      store,
		gen:        gen,
		genTimeout: genTimeout,
		logger:     logger,
		started:    started,
		resumed:    resumed,
		failed:     failed,
	}
}

// Start creates a workflow of the given kind, invokes the generator with the
// task description and leaves the workflow awaiting human input. A generator
// failure moves the workflow to the terminal error status; the record is
// kept for inspection.
func (s *WorkflowService) Start(ctx context.Context, kind models.WorkflowKind, task string) (*models.Workflow, error) {
	spec, ok := models.SpecFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown workflow kind %q", ErrInvalidInput, kind)
	}
	if strings.TrimSpace(task) == "" {
		return nil, fmt.Errorf("%w: task description is required", ErrInvalidInput)
	}

	wf, err := s.store.Create(ctx, kind, task)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Update(ctx, wf.ID, func(w *models.Workflow) error {
		w.Status = models.StatusGenerating
		return nil
	}); err != nil {
		return nil, err
	}

	payload, genErr := s.generate(ctx, GenerateRequest{Kind: kind, Task: task})
	if genErr != nil {
		s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
		s.logger.Error("generation failed on start", "workflow_id", wf.ID, "kind", kind, "error", genErr)
		if _, err := s.store.Update(ctx, wf.ID, func(w *models.Workflow) error {
			w.Status = models.StatusError
			w.Interrupt = nil
			return nil
		}); err != nil {
			return nil, err
		}
		return nil, genErr
	}

	snapshot, err := s.store.Update(ctx, wf.ID, func(w *models.Workflow) error {
		w.Status = models.StatusAwaitingHumanInput
		w.GeneratedPayload = payload
		w.Interrupt = &models.InterruptContext{
			Prompt:         spec.DecisionPrompt,
			AllowedActions: spec.AllowedActions,
			Payload:        payload,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.started.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
	s.logger.Info("workflow started", "workflow_id", snapshot.ID, "kind", kind)
	return snapshot, nil
}

// Resume applies a human decision to a waiting workflow. The whole decision
// runs inside a single store update, so concurrent resumes on one id are
// linearized and any error leaves the prior state fully intact.
func (s *WorkflowService) Resume(ctx context.Context, id string, input models.HumanInput) (*models.Workflow, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: workflow id is required", ErrInvalidInput)
	}
	if input.Action == "" {
		return nil, fmt.Errorf("%w: action is required", ErrInvalidInput)
	}

	snapshot, err := s.store.Update(ctx, id, func(w *models.Workflow) error {
		if w.Status.Terminal() {
			return fmt.Errorf("%w: workflow %s is %s", ErrWorkflowTerminal, w.ID, w.Status)
		}
		if w.Status != models.StatusAwaitingHumanInput {
			return fmt.Errorf("%w: workflow %s is %s", ErrWorkflowNotWaiting, w.ID, w.Status)
		}

		spec, ok := models.SpecFor(w.Kind)
		if !ok || !spec.Allows(input.Action) {
			return fmt.Errorf("%w: %q (allowed: %v)", ErrInvalidAction, input.Action, spec.AllowedActions)
		}

		entry := models.HistoryEntry{Action: input.Action, Feedback: input.Feedback, At: time.Now().UTC()}

		switch input.Action {
		case models.ActionApprove:
			w.Status = models.StatusCompleted
			w.Interrupt = nil
			w.History = append(w.History, entry)
			return nil

		case models.ActionReject:
			w.Status = models.StatusRejected
			w.Interrupt = nil
			w.History = append(w.History, entry)
			return nil

		case models.ActionEdit:
			payload, genErr := s.generate(ctx, GenerateRequest{
				Kind:         w.Kind,
				Task:         w.TaskDescription,
				PriorPayload: w.GeneratedPayload,
				Feedback:     input.Feedback,
			})
			if genErr != nil {
				// The workflow stays waiting with its previous payload
				// and interrupt context so the human can retry.
				return genErr
			}
			w.GeneratedPayload = payload
			w.Interrupt = &models.InterruptContext{
				Prompt:         spec.DecisionPrompt,
				AllowedActions: spec.AllowedActions,
				Payload:        payload,
			}
			w.History = append(w.History, entry)
			return nil

		default:
			return fmt.Errorf("%w: %q", ErrInvalidAction, input.Action)
		}
	})
	if err != nil {
		if errors.Is(err, ErrGenerator) {
			s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(input.Action))))
		}
		return nil, err
	}

	s.resumed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(snapshot.Kind)),
		attribute.String("action", string(input.Action)),
	))
	s.logger.Info("workflow resumed", "workflow_id", snapshot.ID, "action", input.Action, "status", snapshot.Status)
	return snapshot, nil
}

// Status returns a snapshot of the workflow with the given id.
func (s *WorkflowService) Status(ctx context.Context, id string) (*models.Workflow, error) {
	return s.store.Get(ctx, id)
}

// ListActive returns all workflows awaiting human input, in creation order.
func (s *WorkflowService) ListActive(ctx context.Context) ([]*models.Workflow, error) {
	return s.store.ListByStatus(ctx, models.StatusAwaitingHumanInput)
}

// PruneTerminal evicts terminal workflows older than the retention TTL.
func (s *WorkflowService) PruneTerminal(ctx context.Context, ttl time.Duration) int {
	removed := s.store.PruneTerminal(ctx, time.Now().UTC().Add(-ttl))
	if removed > 0 {
		s.logger.Info("pruned terminal workflows", "count", removed)
	}
	return removed
}

// generate invokes the generator with the configured timeout and wraps any
// failure, including a timeout, as ErrGenerator.
func (s *WorkflowService) generate(ctx context.Context, req GenerateRequest) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	payload, err := s.gen.Generate(genCtx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerator, err)
	}
	return payload, nil
}
