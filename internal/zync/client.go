package zync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/zyncrender/max-plugin/internal/config"
	"github.com/zyncrender/max-plugin/internal/model"
)

// RenderBackend defines the interface for Zync account and render
// submission operations
type RenderBackend interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Account(ctx context.Context) (*AccountResponse, error)
	Projects(ctx context.Context) ([]Project, error)
	InstanceTypes(ctx context.Context, renderer, usageTag string) ([]InstanceType, error)
	SubmitJob(ctx context.Context, req *SubmitJobRequest) (*SubmitJobResponse, error)
	JobStatus(ctx context.Context, jobID string) (*JobStatusResponse, error)
	Logout(ctx context.Context) error
	IsConfigured() bool
}

// Client implements RenderBackend against the Zync REST API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// LoginRequest represents the credentials for a login call
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// AccountResponse represents the authenticated account
type AccountResponse struct {
	Email string `json:"email"`
}

// Project represents a render project on the account
type Project struct {
	Name string `json:"name"`
}

// InstanceType represents one rentable machine configuration
type InstanceType struct {
	Label        string  `json:"label"`
	Code         string  `json:"code"`
	PricePerHour float64 `json:"price_per_hour"`
	Preemptible  bool    `json:"preemptible"`
}

// SubmitJobRequest represents a render job submission
type SubmitJobRequest struct {
	JobType   string                 `json:"job_type"`
	SceneFile string                 `json:"scene_file"`
	Params    model.SubmissionParams `json:"params"`
}

// SubmitJobResponse represents an accepted render job
type SubmitJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatusResponse represents the state of a submitted render job
type JobStatusResponse struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Renderer   string `json:"renderer,omitempty"`
	DoneChunks int    `json:"done_chunks"`
	Chunks     int    `json:"chunks"`
}

type projectsResponse struct {
	Projects []Project `json:"projects"`
}

type instanceTypesResponse struct {
	InstanceTypes []InstanceType `json:"instance_types"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a new Zync API client
func NewClient(cfg *config.ZyncConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
	}
}

// Login authenticates with email and password and stores the session token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var result LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.post(ctx, "/api/v1/auth/login", req, &result); err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// Account retrieves the account behind the current session token
func (c *Client) Account(ctx context.Context) (*AccountResponse, error) {
	var result AccountResponse
	if err := c.get(ctx, "/api/v1/account", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Projects retrieves the render projects on the account
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var result projectsResponse
	if err := c.get(ctx, "/api/v1/projects", &result); err != nil {
		return nil, err
	}
	return result.Projects, nil
}

// InstanceTypes retrieves the machine catalog for a renderer and usage tag
func (c *Client) InstanceTypes(ctx context.Context, renderer, usageTag string) ([]InstanceType, error) {
	endpoint := fmt.Sprintf("/api/v1/instance-types?renderer=%s&usage_tag=%s", renderer, usageTag)
	var result instanceTypesResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return result.InstanceTypes, nil
}

// SubmitJob submits a render job for execution
func (c *Client) SubmitJob(ctx context.Context, req *SubmitJobRequest) (*SubmitJobResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/jobs", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	var result SubmitJobResponse
	if err := c.doRequest(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// JobStatus retrieves the state of a submitted render job
func (c *Client) JobStatus(ctx context.Context, jobID string) (*JobStatusResponse, error) {
	endpoint := fmt.Sprintf("/api/v1/jobs/%s", jobID)
	var result JobStatusResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout invalidates the current session token
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/api/v1/auth/logout", struct{}{}, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// SaveToken persists the session token for later runs
func (c *Client) SaveToken(path string) error {
	if err := os.WriteFile(path, []byte(c.token), 0o600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// post sends a POST request with JSON body
func (c *Client) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *Client) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *Client) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log.Printf("[Zync API] → %s %s", req.Method, req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Zync API] ✗ %s %s — request failed: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Zync API] ✗ %s %s — failed to read response: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[Zync API] ← %d %s %s", resp.StatusCode, req.Method, req.URL.String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error.Message != "" {
			return fmt.Errorf("zync API error (status %d): %s", resp.StatusCode, envelope.Error.Message)
		}
		return fmt.Errorf("zync API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		log.Printf("[Zync API] ✗ unmarshal error for %s %s: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// PollJobStatus polls for render job completion
func (c *Client) PollJobStatus(ctx context.Context, jobID string, interval time.Duration, maxWait time.Duration) (*JobStatusResponse, error) {
	deadline := time.Now().Add(maxWait)
	attempt := 0

	for time.Now().Before(deadline) {
		attempt++
		result, err := c.JobStatus(ctx, jobID)
		if err != nil {
			log.Printf("[Zync API] Poll job #%d (job=%s) — error: %v", attempt, jobID, err)
			return nil, err
		}

		log.Printf("[Zync API] Poll job #%d (job=%s) — status: %s (%d/%d chunks)",
			attempt, jobID, result.Status, result.DoneChunks, result.Chunks)

		switch result.Status {
		case "succeeded":
			return result, nil
		case "failed", "canceled":
			return nil, fmt.Errorf("render job %s: %s", jobID, result.Status)
		}

		select {
		case <-ctx.Done():
			log.Printf("[Zync API] Poll job (job=%s) — context cancelled", jobID)
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}

	return nil, fmt.Errorf("render job %s did not finish within %s", jobID, maxWait)
}
