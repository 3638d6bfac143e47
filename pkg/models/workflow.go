// Package models defines the domain models for the workflow service
package models

import (
	"time"
)

// WorkflowKind is the closed category of a workflow. It is fixed at creation
// and selects the generator behaviour and decision vocabulary for the
// workflow.
type WorkflowKind string

const (
	KindContentApproval WorkflowKind = "content-approval"
	KindTaskPlanning    WorkflowKind = "task-planning"
	KindDocumentReview  WorkflowKind = "document-review"
)

// WorkflowStatus is the current position of a workflow in its state machine.
type WorkflowStatus string

const (
	StatusCreated            WorkflowStatus = "created"
	StatusGenerating         WorkflowStatus = "generating"
	StatusAwaitingHumanInput WorkflowStatus = "awaiting_human_input"
	StatusCompleted          WorkflowStatus = "completed"
	StatusRejected           WorkflowStatus = "rejected"
	StatusError              WorkflowStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s WorkflowStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusError:
		return true
	}
	return false
}

// Action is a decision a human can supply when resuming a workflow.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionEdit    Action = "edit"
)

// HumanInput is the decision payload supplied to resume a workflow.
type HumanInput struct {
	Action   Action `json:"action"`
	Feedback string `json:"feedback,omitempty"`
}

// HistoryEntry records one past decision applied to a workflow. History is
// append-only.
type HistoryEntry struct {
	Action   Action    `json:"action"`
	Feedback string    `json:"feedback,omitempty"`
	At       time.Time `json:"at"`
}

// InterruptContext describes what the human must decide. It is populated
// whenever a workflow enters a waiting state and replaced on every resume.
type InterruptContext struct {
	Prompt         string   `json:"prompt"`
	AllowedActions []Action `json:"allowed_actions"`
	Payload        string   `json:"payload"`
}

// Workflow is the unit of work tracked by the engine.
type Workflow struct {
	ID               string            `json:"id"`
	Kind             WorkflowKind      `json:"kind"`
	Status           WorkflowStatus    `json:"status"`
	TaskDescription  string            `json:"task_description"`
	GeneratedPayload string            `json:"generated_payload,omitempty"`
	Interrupt        *InterruptContext `json:"interrupt_context,omitempty"`
	History          []HistoryEntry    `json:"history,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the workflow so callers can hand out
// snapshots without exposing store-internal state.
func (w *Workflow) Clone() *Workflow {
	cp := *w
	if w.Interrupt != nil {
		ic := *w.Interrupt
		ic.AllowedActions = append([]Action(nil), w.Interrupt.AllowedActions...)
		cp.Interrupt = &ic
	}
	cp.History = append([]HistoryEntry(nil), w.History...)
	return &cp
}
