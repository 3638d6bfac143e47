package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"hitl-mcp/backend/pkg/models"
)

// TemplateGenerator produces deterministic draft payloads from templates.
// It stands in for a real model-backed generator and is the default when no
// generator sidecar is configured.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a new TemplateGenerator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate returns a draft for the request. When feedback is present the
// prior payload is revised rather than drafted from scratch.
func (g *TemplateGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if req.Feedback != "" {
		return fmt.Sprintf("%s\n\n**Revised based on feedback:** %s", req.PriorPayload, req.Feedback), nil
	}

	switch req.Kind {
	case models.KindContentApproval:
		return fmt.Sprintf(`**Generated Content**

This is draft content addressing the request: %q

Key points:
- Comprehensive response to the stated requirements
- Structured and professional format
- Ready for review and approval`, req.Task), nil

	case models.KindTaskPlanning:
		return fmt.Sprintf(`**Generated Plan for:** %q

1. Analyze task requirements
2. Break down into actionable steps
3. Estimate timeline and resources
4. Create execution sequence
5. Define success criteria`, req.Task), nil

	case models.KindDocumentReview:
		return fmt.Sprintf(`**Document Analysis**

Document length: %d characters

Findings:
- Document structure appears well organized
- Content covers the main topic comprehensively
- Professional tone and formatting maintained
- No obvious errors or inconsistencies detected

Summary: the document presents information in a clear and structured manner.
Confidence: %d%%`, len(req.Task), confidenceFor(req.Task)), nil

	default:
		return "", fmt.Errorf("unknown workflow kind: %s", req.Kind)
	}
}

// confidenceFor is a stand-in heuristic: very short documents get a lower
// confidence score.
func confidenceFor(doc string) int {
	if len(strings.TrimSpace(doc)) < 80 {
		return 60
	}
	return 85
}

// HTTPGenerator delegates generation to an HTTP sidecar.
type HTTPGenerator struct {
	url    string
	client *http.Client
}

// NewHTTPGenerator creates a new HTTPGenerator for the given base URL.
func NewHTTPGenerator(url string) *HTTPGenerator {
	return &HTTPGenerator{url: url, client: http.DefaultClient}
}

type generateRequestBody struct {
	Kind     string `json:"kind"`
	Task     string `json:"task"`
	Feedback string `json:"feedback,omitempty"`
	Prior    string `json:"prior_payload,omitempty"`
}

type generateResponseBody struct {
	Payload string `json:"payload"`
}

// Generate POSTs the request to the sidecar and returns the payload.
func (g *HTTPGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	body, err := json.Marshal(generateRequestBody{
		Kind:     string(req.Kind),
		Task:     req.Task,
		Feedback: req.Feedback,
		Prior:    req.PriorPayload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"/generate", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var out generateResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generator response: %w", err)
	}
	if out.Payload == "" {
		return "", fmt.Errorf("generator returned an empty payload")
	}

	return out.Payload, nil
}
