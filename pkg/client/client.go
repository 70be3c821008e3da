package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kode4food/flowrun/pkg/api"
)

type (
	// Client talks to a flowrun server
	Client struct {
		http *resty.Client
	}

	// APIError is returned when the server answers with a non-2xx status
	APIError struct {
		Message string
		Fields  []api.FieldError
		Status  int
	}
)

const apiPrefix = "/api/v1"

var ErrRequest = errors.New("request failed")

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
}

// Error implements error
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Health reports the server's health
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var res api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RegisterFlow stores a new flow. The returned flow carries the ID the
// server assigned when fl.ID is empty
func (c *Client) RegisterFlow(ctx context.Context, fl *api.Flow) (*api.Flow, error) {
	var res api.FlowRegisteredResponse
	err := c.do(ctx, http.MethodPost, apiPrefix+"/flows", fl, &res)
	if err != nil {
		return nil, err
	}
	return res.Flow, nil
}

// UpdateFlow replaces a registered flow
func (c *Client) UpdateFlow(ctx context.Context, fl *api.Flow) (*api.Flow, error) {
	var res api.FlowRegisteredResponse
	err := c.do(ctx, http.MethodPut, flowPath(fl.ID), fl, &res)
	if err != nil {
		return nil, err
	}
	return res.Flow, nil
}

// GetFlow retrieves a registered flow
func (c *Client) GetFlow(ctx context.Context, id api.FlowID) (*api.Flow, error) {
	var res api.Flow
	if err := c.do(ctx, http.MethodGet, flowPath(id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListFlows retrieves every registered flow
func (c *Client) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	var res api.FlowsListResponse
	err := c.do(ctx, http.MethodGet, apiPrefix+"/flows", nil, &res)
	if err != nil {
		return nil, err
	}
	return res.Flows, nil
}

// DeleteFlow removes a registered flow
func (c *Client) DeleteFlow(ctx context.Context, id api.FlowID) error {
	return c.do(ctx, http.MethodDelete, flowPath(id), nil, nil)
}

// Run executes a flow with a simplified request
func (c *Client) Run(
	ctx context.Context, id api.FlowID, req *api.SimplifiedAPIRequest,
) (*api.RunResponse, error) {
	var res api.RunResponse
	path := apiPrefix + "/run/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RunAdvanced executes a flow once per input of the request
func (c *Client) RunAdvanced(
	ctx context.Context, id api.FlowID, req *api.RunFlowRequest,
) (*api.RunResponse, error) {
	var res api.RunResponse
	path := apiPrefix + "/run/advanced/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Session retrieves the chat history of a session
func (c *Client) Session(
	ctx context.Context, id api.SessionID,
) (*api.SessionResponse, error) {
	var res api.SessionResponse
	if err := c.do(ctx, http.MethodGet, sessionPath(id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ClearSession deletes the chat history of a session
func (c *Client) ClearSession(ctx context.Context, id api.SessionID) error {
	return c.do(ctx, http.MethodDelete, sessionPath(id), nil, nil)
}

// Schema retrieves a JSON Schema document by name
func (c *Client) Schema(ctx context.Context, name string) (map[string]any, error) {
	var res map[string]any
	path := apiPrefix + "/schema/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) do(
	ctx context.Context, method, path string, body, result any,
) error {
	var apiErr api.ErrorResponse
	req := c.http.R().SetContext(ctx).SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if !resp.IsError() {
		return nil
	}

	res := &APIError{
		Message: apiErr.Error,
		Fields:  apiErr.Fields,
		Status:  resp.StatusCode(),
	}
	if res.Message == "" {
		res.Message = resp.String()
	}
	return res
}

func flowPath(id api.FlowID) string {
	return apiPrefix + "/flows/" + url.PathEscape(string(id))
}

func sessionPath(id api.SessionID) string {
	return apiPrefix + "/sessions/" + url.PathEscape(string(id))
}
