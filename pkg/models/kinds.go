package models

// KindSpec carries the per-kind behaviour as data: the label used for the
// human-supplied task, the decision prompt shown at the interrupt point and
// the closed set of actions the kind accepts on resume.
type KindSpec struct {
	Kind           WorkflowKind
	Title          string
	TaskLabel      string
	DecisionPrompt string
	AllowedActions []Action
}

// Allows reports whether the action is a member of the kind's allowed set.
func (ks KindSpec) Allows(a Action) bool {
	for _, allowed := range ks.AllowedActions {
		if a == allowed {
			return true
		}
	}
	return false
}

var kindSpecs = map[WorkflowKind]KindSpec{
	KindContentApproval: {
		Kind:           KindContentApproval,
		Title:          "Content Approval",
		TaskLabel:      "Task",
		DecisionPrompt: "Please review the generated content. Choose: approve, reject, or request edits.",
		AllowedActions: []Action{ActionApprove, ActionReject, ActionEdit},
	},
	KindTaskPlanning: {
		Kind:           KindTaskPlanning,
		Title:          "Task Planning",
		TaskLabel:      "Original Task",
		DecisionPrompt: "Please review the generated plan. Choose: approve, reject, or request edits.",
		AllowedActions: []Action{ActionApprove, ActionReject, ActionEdit},
	},
	KindDocumentReview: {
		Kind:           KindDocumentReview,
		Title:          "Document Review",
		TaskLabel:      "Document",
		DecisionPrompt: "Please review the document analysis. Approve it if accurate, reject it, or request edits.",
		AllowedActions: []Action{ActionApprove, ActionReject, ActionEdit},
	},
}

// SpecFor returns the KindSpec for the given kind.
func SpecFor(kind WorkflowKind) (KindSpec, bool) {
	ks, ok := kindSpecs[kind]
	return ks, ok
}

// ParseKind maps a string onto a known WorkflowKind.
func ParseKind(s string) (WorkflowKind, bool) {
	kind := WorkflowKind(s)
	_, ok := kindSpecs[kind]
	return kind, ok
}

// Kinds returns all known workflow kinds.
func Kinds() []WorkflowKind {
	return []WorkflowKind{KindContentApproval, KindTaskPlanning, KindDocumentReview}
}

// NextSteps returns a short hint telling the caller what to do with a
// workflow in the given status.
func NextSteps(s WorkflowStatus) string {
	switch s {
	case StatusAwaitingHumanInput:
		return "Use resume_workflow with action: approve, reject or edit."
	case StatusCompleted:
		return "Workflow is completed; the generated payload is final."
	case StatusRejected:
		return "Workflow was rejected; start a new workflow to try again."
	case StatusError:
		return "Workflow failed during generation; start a new workflow."
	default:
		return "Workflow is being processed."
	}
}
