package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadflow/internal/models"
)

// PipelineClient talks to the pipeline HTTP API on behalf of one user.
// It satisfies pipeline.Backend, so a Coordinator can run against a live server.
type PipelineClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *PipelineClient {
	return &PipelineClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError is a non-2xx answer the client could not map to a domain error.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pipeline api: %d %s: %s", e.Status, e.Code, e.Message)
}

type errorBody struct {
	Error  string                   `json:"error"`
	Code   string                   `json:"code"`
	OK     *bool                    `json:"ok"`
	Errors []models.ValidationError `json:"errors"`
}

// RequestTransition posts the move. A 422 answer is a validation result, not an error.
func (c *PipelineClient) RequestTransition(ctx context.Context, workspaceID string, req models.TransitionRequest) (models.TransitionResult, error) {
	path := fmt.Sprintf("/workspaces/%s/leads/%s/transition", url.PathEscape(workspaceID), url.PathEscape(req.LeadID))

	var res models.TransitionResult
	status, body, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return res, err
	}
	switch {
	case status == http.StatusOK:
		if err := json.Unmarshal(body, &res); err != nil {
			return res, fmt.Errorf("decode transition result: %w", err)
		}
		return res, nil
	case status == http.StatusUnprocessableEntity:
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err != nil {
			return res, fmt.Errorf("decode validation errors: %w", err)
		}
		return models.TransitionResult{OK: false, Errors: eb.Errors}, nil
	default:
		return res, apiError(status, body)
	}
}

func (c *PipelineClient) ReorderWithinStage(ctx context.Context, workspaceID, stageID string, orderedLeadIDs []string) ([]models.SortAssignment, error) {
	path := fmt.Sprintf("/workspaces/%s/stages/%s/leads/order", url.PathEscape(workspaceID), url.PathEscape(stageID))
	status, body, err := c.do(ctx, http.MethodPut, path, models.ReorderLeadsRequest{LeadIDs: orderedLeadIDs})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}
	var out []models.SortAssignment
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode sort assignments: %w", err)
	}
	return out, nil
}

// Board fetches the visible columns, used to (re)load a coordinator.
func (c *PipelineClient) Board(ctx context.Context, workspaceID string) ([]models.BoardColumn, error) {
	status, body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/workspaces/%s/board", url.PathEscape(workspaceID)), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}
	var cols []models.BoardColumn
	if err := json.Unmarshal(body, &cols); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return cols, nil
}

func (c *PipelineClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var rdr io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func apiError(status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", eb.Error, models.ErrNotFound)
	case eb.Code == "STAGE_CONFLICT":
		return fmt.Errorf("%s: %w", eb.Error, models.ErrStageConflict)
	case eb.Code == "CONCURRENT_UPDATE":
		return fmt.Errorf("%s: %w", eb.Error, models.ErrConcurrentUpdate)
	case eb.Code == "INVALID_ORDERING":
		return fmt.Errorf("%s: %w", eb.Error, models.ErrInvalidOrdering)
	case eb.Code == "SYSTEM_STAGE_PROTECTED":
		return fmt.Errorf("%s: %w", eb.Error, models.ErrSystemStageProtected)
	case eb.Code == "HAS_DEPENDENT_LEADS":
		return fmt.Errorf("%s: %w", eb.Error, models.ErrHasDependentLeads)
	}
	return &APIError{Status: status, Code: eb.Code, Message: eb.Error}
}
