package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"hitl-mcp/backend/internal/services"
	"hitl-mcp/backend/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Workflows *services.WorkflowService
}

// NewServer creates a new Server.
func NewServer(workflows *services.WorkflowService) *Server {
	return &Server{Workflows: workflows}
}

// RegisterRoutes mounts the workflow routes on the given group.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.GET("/workflows", s.ListActiveWorkflows)
	g.GET("/workflows/:id", s.GetWorkflowStatus)
	g.POST("/workflows", s.StartWorkflow)
	g.POST("/workflows/:id/resume", s.ResumeWorkflow)
}

// startRequest is the body of a start call. Task carries the free-text task
// for content approval and planning, or the document body for review.
type startRequest struct {
	Kind string `json:"kind"`
	Task string `json:"task"`
}

type resumeRequest struct {
	Action   string `json:"action"`
	Feedback string `json:"feedback,omitempty"`
}

// workflowResponse is the snapshot returned by every workflow endpoint. The
// full payload and interrupt context are always included so the caller can
// display them verbatim.
type workflowResponse struct {
	*models.Workflow
	NextSteps string `json:"next_steps"`
}

func snapshot(wf *models.Workflow) workflowResponse {
	return workflowResponse{Workflow: wf, NextSteps: models.NextSteps(wf.Status)}
}

// StartWorkflow starts a workflow of the kind named in the body
// (POST /api/v1/workflows)
func (s *Server) StartWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	kind, ok := models.ParseKind(req.Kind)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown workflow kind: "+req.Kind)
	}

	wf, err := s.Workflows.Start(ctx, kind, req.Task)
	if err != nil {
		return writeProblem(c, err)
	}

	return c.JSON(http.StatusCreated, snapshot(wf))
}

// ResumeWorkflow applies a human decision to a waiting workflow
// (POST /api/v1/workflows/:id/resume)
func (s *Server) ResumeWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var req resumeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	wf, err := s.Workflows.Resume(ctx, c.Param("id"), models.HumanInput{
		Action:   models.Action(req.Action),
		Feedback: req.Feedback,
	})
	if err != nil {
		return writeProblem(c, err)
	}

	return c.JSON(http.StatusOK, snapshot(wf))
}

// GetWorkflowStatus returns the full current workflow snapshot
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflowStatus(c echo.Context) error {
	ctx := c.Request().Context()

	wf, err := s.Workflows.Status(ctx, c.Param("id"))
	if err != nil {
		return writeProblem(c, err)
	}

	return c.JSON(http.StatusOK, snapshot(wf))
}

// ListActiveWorkflows returns all workflows awaiting human input
// (GET /api/v1/workflows)
func (s *Server) ListActiveWorkflows(c echo.Context) error {
	ctx := c.Request().Context()

	workflows, err := s.Workflows.ListActive(ctx)
	if err != nil {
		return writeProblem(c, err)
	}

	out := make([]workflowResponse, 0, len(workflows))
	for _, wf := range workflows {
		out = append(out, snapshot(wf))
	}
	return c.JSON(http.StatusOK, out)
}
