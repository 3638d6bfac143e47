package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hitl-mcp/backend/internal/logging"
	"hitl-mcp/backend/internal/repository"
	"hitl-mcp/backend/internal/services"
	"hitl-mcp/backend/pkg/models"
)

func newTestEcho() *echo.Echo {
	store := repository.NewMemoryWorkflowStore()
	logger := logging.NewLogger("error", false)
	svc := services.NewWorkflowService(store, services.NewTemplateGenerator(), 5*time.Second, logger)

	e := echo.New()
	s := NewServer(svc)
	e.GET("/healthz", s.HandleHealth)
	s.RegisterRoutes(e.Group("/api/v1"))
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func startOne(t *testing.T, e *echo.Echo, kind string) workflowResponse {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows", `{"kind":"`+kind+`","task":"write a blog post"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var wf workflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wf))
	return wf
}

func TestHandleHealth(t *testing.T) {
	e := newTestEcho()

	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStartWorkflow(t *testing.T) {
	e := newTestEcho()

	wf := startOne(t, e, "content-approval")
	assert.NotEmpty(t, wf.ID)
	assert.Equal(t, models.KindContentApproval, wf.Kind)
	assert.Equal(t, models.StatusAwaitingHumanInput, wf.Status)
	assert.NotEmpty(t, wf.GeneratedPayload)
	require.NotNil(t, wf.Interrupt)
	assert.Equal(t, wf.GeneratedPayload, wf.Interrupt.Payload)
	assert.NotEmpty(t, wf.NextSteps)
}

func TestStartWorkflow_UnknownKind(t *testing.T) {
	e := newTestEcho()

	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows", `{"kind":"essay-grading","task":"task"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartWorkflow_EmptyTask(t *testing.T) {
	e := newTestEcho()

	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows", `{"kind":"task-planning","task":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidInput")
}

func TestResumeWorkflow_Approve(t *testing.T) {
	e := newTestEcho()
	wf := startOne(t, e, "content-approval")

	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/resume", `{"action":"approve","feedback":"ship it"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var done workflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Nil(t, done.Interrupt)
	require.Len(t, done.History, 1)

	// Resuming a finished workflow is a conflict.
	rec = doJSON(t, e, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/resume", `{"action":"approve"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "WorkflowTerminal")
}

func TestResumeWorkflow_Edit(t *testing.T) {
	e := newTestEcho()
	wf := startOne(t, e, "content-approval")

	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/resume", `{"action":"edit","feedback":"make it shorter"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var edited workflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edited))
	assert.Equal(t, models.StatusAwaitingHumanInput, edited.Status)
	assert.NotEqual(t, wf.GeneratedPayload, edited.GeneratedPayload)
	require.NotNil(t, edited.Interrupt)
}

func TestResumeWorkflow_InvalidAction(t *testing.T) {
	e := newTestEcho()
	wf := startOne(t, e, "content-approval")

	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/resume", `{"action":"cancel"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidAction")
}

func TestResumeWorkflow_NotFound(t *testing.T) {
	e := newTestEcho()

	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows/does-not-exist/resume", `{"action":"approve"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NotFound")
	assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))
}

func TestGetWorkflowStatus(t *testing.T) {
	e := newTestEcho()
	wf := startOne(t, e, "document-review")

	rec := doJSON(t, e, http.MethodGet, "/api/v1/workflows/"+wf.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got workflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, wf.ID, got.ID)
	assert.Equal(t, models.StatusAwaitingHumanInput, got.Status)
}

func TestGetWorkflowStatus_NotFound(t *testing.T) {
	e := newTestEcho()

	rec := doJSON(t, e, http.MethodGet, "/api/v1/workflows/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListActiveWorkflows(t *testing.T) {
	e := newTestEcho()

	rec := doJSON(t, e, http.MethodGet, "/api/v1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	first := startOne(t, e, "content-approval")
	second := startOne(t, e, "task-planning")

	rec = doJSON(t, e, http.MethodGet, "/api/v1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []workflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	// Drain to terminal; the active list must come back empty.
	doJSON(t, e, http.MethodPost, "/api/v1/workflows/"+first.ID+"/resume", `{"action":"approve"}`)
	doJSON(t, e, http.MethodPost, "/api/v1/workflows/"+second.ID+"/resume", `{"action":"reject"}`)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}
