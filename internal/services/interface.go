package services

import (
	"context"

	"hitl-mcp/backend/pkg/models"
)

// GenerateRequest carries the inputs to a generator call. Feedback and
// PriorPayload are set only when regenerating after an edit decision.
type GenerateRequest struct {
	Kind         models.WorkflowKind
	Task         string
	PriorPayload string
	Feedback     string
}

// Generator is the collaborator that produces draft content, plans or
// analysis for a workflow. The payload is opaque to the engine.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
