package mcp

import (
	"fmt"
	"strings"

	"hitl-mcp/backend/pkg/models"
)

// The render helpers produce the markdown documents returned to the calling
// client. The contract is that the full generated payload and the full
// interrupt context are carried verbatim; the client displays them as-is.

func renderStarted(wf *models.Workflow) string {
	spec, _ := models.SpecFor(wf.Kind)

	var b strings.Builder
	fmt.Fprintf(&b, "**%s Workflow Started**\n\n", spec.Title)
	fmt.Fprintf(&b, "**Workflow ID:** `%s`\n", wf.ID)
	fmt.Fprintf(&b, "**Status:** %s\n\n", wf.Status)
	b.WriteString(wf.GeneratedPayload)
	b.WriteString("\n")
	writeInterrupt(&b, wf)
	writeResumeHint(&b, wf.ID)
	return b.String()
}

func renderResumed(wf *models.Workflow, action models.Action) string {
	var b strings.Builder
	b.WriteString("**Workflow Resumed**\n\n")
	fmt.Fprintf(&b, "**Workflow ID:** `%s`\n", wf.ID)
	fmt.Fprintf(&b, "**Action:** %s\n", action)
	fmt.Fprintf(&b, "**Status:** %s\n\n", wf.Status)

	switch wf.Status {
	case models.StatusCompleted:
		b.WriteString("The workflow is complete. Final output:\n\n")
		b.WriteString(wf.GeneratedPayload)
		b.WriteString("\n")
	case models.StatusRejected:
		b.WriteString("The workflow was rejected. Last generated output:\n\n")
		b.WriteString(wf.GeneratedPayload)
		b.WriteString("\n")
	case models.StatusAwaitingHumanInput:
		b.WriteString(wf.GeneratedPayload)
		b.WriteString("\n")
		writeInterrupt(&b, wf)
		writeResumeHint(&b, wf.ID)
	}
	return b.String()
}

func renderStatus(wf *models.Workflow) string {
	var b strings.Builder
	b.WriteString("**Workflow Status**\n\n")
	fmt.Fprintf(&b, "**Workflow ID:** `%s`\n", wf.ID)
	fmt.Fprintf(&b, "**Kind:** %s\n", wf.Kind)
	fmt.Fprintf(&b, "**Status:** %s\n", wf.Status)
	fmt.Fprintf(&b, "**Created:** %s\n", wf.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	if wf.GeneratedPayload != "" {
		b.WriteString("\n")
		b.WriteString(wf.GeneratedPayload)
		b.WriteString("\n")
	}
	writeInterrupt(&b, wf)

	if len(wf.History) > 0 {
		b.WriteString("\n**History:**\n")
		for _, entry := range wf.History {
			fmt.Fprintf(&b, "- %s (%s)", entry.Action, entry.At.Format("2006-01-02 15:04:05"))
			if entry.Feedback != "" {
				fmt.Fprintf(&b, ": %s", entry.Feedback)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n**Next Steps:** %s\n", models.NextSteps(wf.Status))
	return b.String()
}

func renderActiveList(workflows []*models.Workflow) string {
	if len(workflows) == 0 {
		return "**No active workflows**\n\nThere are currently no workflows waiting for human input."
	}

	var b strings.Builder
	b.WriteString("**Active Workflows**\n\n")
	for _, wf := range workflows {
		fmt.Fprintf(&b, "- **Workflow ID:** `%s` — kind: %s, created: %s\n",
			wf.ID, wf.Kind, wf.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	b.WriteString("\nUse get_workflow_status for details or resume_workflow to continue.")
	return b.String()
}

func writeInterrupt(b *strings.Builder, wf *models.Workflow) {
	if wf.Interrupt == nil {
		return
	}
	fmt.Fprintf(b, "\n**Action Required:** %s\n", wf.Interrupt.Prompt)
	opts := make([]string, 0, len(wf.Interrupt.AllowedActions))
	for _, a := range wf.Interrupt.AllowedActions {
		opts = append(opts, string(a))
	}
	fmt.Fprintf(b, "**Options:** %s\n", strings.Join(opts, ", "))
}

func writeResumeHint(b *strings.Builder, id string) {
	fmt.Fprintf(b, `
To continue this workflow:

    Use tool: resume_workflow
    workflow_id: %s
    action: approve | reject | edit
    feedback: your feedback here

Workflow paused - waiting for your decision.
`, id)
}
