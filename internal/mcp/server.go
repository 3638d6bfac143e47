package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"hitl-mcp/backend/internal/repository"
	"hitl-mcp/backend/internal/services"
	"hitl-mcp/backend/pkg/models"
)

// Server exposes the workflow engine as a set of MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	workflows *services.WorkflowService
}

// NewServer creates a new Server.
func NewServer(workflows *services.WorkflowService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Human-in-the-Loop Workflows",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		workflows: workflows,
	}

	s.registerTools()
	return s
}

// GetMCPServer returns the underlying MCP server for mounting.
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_content_approval",
			mcp.WithDescription("Start a content approval workflow with human review"),
			mcp.WithString("task", mcp.Required(), mcp.Description("The content generation task")),
		),
		s.startHandler(models.KindContentApproval, "task"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_task_planning",
			mcp.WithDescription("Start a task planning workflow with human approval"),
			mcp.WithString("task", mcp.Required(), mcp.Description("The complex task to break down and plan")),
		),
		s.startHandler(models.KindTaskPlanning, "task"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_document_review",
			mcp.WithDescription("Start a document review workflow with human verification"),
			mcp.WithString("document_content", mcp.Required(), mcp.Description("The document content to analyze and review")),
		),
		s.startHandler(models.KindDocumentReview, "document_content"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"resume_workflow",
			mcp.WithDescription("Resume a paused workflow with human input"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow ID to resume")),
			mcp.WithString("action", mcp.Required(), mcp.Description("The decision: approve, reject or edit")),
			mcp.WithString("feedback", mcp.Description("Free-text feedback accompanying the decision")),
		),
		s.handleResumeWorkflow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_workflow_status",
			mcp.WithDescription("Get the status and details of a workflow"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow ID to check")),
		),
		s.handleGetWorkflowStatus,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_active_workflows",
			mcp.WithDescription("List all workflows waiting for human input"),
		),
		s.handleListActiveWorkflows,
	)
}

// startHandler builds the tool handler for one workflow kind. All three
// start tools route through the same engine call; only the kind and the
// argument carrying the task differ.
func (s *Server) startHandler(kind models.WorkflowKind, taskArg string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("Invalid arguments type"), nil
		}

		task, ok := args[taskArg].(string)
		if !ok || task == "" {
			return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter: %s", taskArg)), nil
		}

		wf, err := s.workflows.Start(ctx, kind, task)
		if err != nil {
			return toolError(err), nil
		}

		return mcp.NewToolResultText(renderStarted(wf)), nil
	}
}

func (s *Server) handleResumeWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["workflow_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: workflow_id"), nil
	}
	action, ok := args["action"].(string)
	if !ok || action == "" {
		return mcp.NewToolResultError("Missing required parameter: action"), nil
	}
	feedback, _ := args["feedback"].(string)

	wf, err := s.workflows.Resume(ctx, id, models.HumanInput{
		Action:   models.Action(action),
		Feedback: feedback,
	})
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(renderResumed(wf, models.Action(action))), nil
}

func (s *Server) handleGetWorkflowStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["workflow_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: workflow_id"), nil
	}

	wf, err := s.workflows.Status(ctx, id)
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(renderStatus(wf)), nil
}

func (s *Server) handleListActiveWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflows, err := s.workflows.ListActive(ctx)
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(renderActiveList(workflows)), nil
}

// toolError maps engine errors onto tool error results, keeping the
// taxonomy visible to the caller.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("NotFound: %v", err))
	case errors.Is(err, services.ErrInvalidInput):
		return mcp.NewToolResultError(fmt.Sprintf("InvalidInput: %v", err))
	case errors.Is(err, services.ErrInvalidAction):
		return mcp.NewToolResultError(fmt.Sprintf("InvalidAction: %v", err))
	case errors.Is(err, services.ErrWorkflowNotWaiting):
		return mcp.NewToolResultError(fmt.Sprintf("WorkflowNotWaiting: %v", err))
	case errors.Is(err, services.ErrWorkflowTerminal):
		return mcp.NewToolResultError(fmt.Sprintf("WorkflowTerminal: %v", err))
	case errors.Is(err, services.ErrGenerator):
		return mcp.NewToolResultError(fmt.Sprintf("GeneratorFailure: %v", err))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

// MountHTTPHandlers mounts the MCP server on the mux under /mcp using SSE,
// with direct POST support for tool calls.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
