// Package api contains the HTTP handlers for the workflow service REST API
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"hitl-mcp/backend/internal/repository"
	"hitl-mcp/backend/internal/services"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK)
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "hitl-mcp",
		Version:   "1.0.0",
	})
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// writeProblem writes an RFC 7807 Problem Details JSON error response,
// mapping the engine's error taxonomy onto HTTP status codes.
func writeProblem(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	title := "Internal Server Error"

	switch {
	case errors.Is(err, repository.ErrNotFound):
		status, title = http.StatusNotFound, "NotFound"
	case errors.Is(err, services.ErrInvalidInput):
		status, title = http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, services.ErrInvalidAction):
		status, title = http.StatusUnprocessableEntity, "InvalidAction"
	case errors.Is(err, services.ErrWorkflowNotWaiting):
		status, title = http.StatusConflict, "WorkflowNotWaiting"
	case errors.Is(err, services.ErrWorkflowTerminal):
		status, title = http.StatusConflict, "WorkflowTerminal"
	case errors.Is(err, services.ErrGenerator):
		status, title = http.StatusBadGateway, "GeneratorFailure"
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: err.Error(),
	})
}
