// Package runtime talks to the provisioner agent that owns the physical
// workloads.
package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lumenhost/lumen/internal/domain/provisioning"
	"github.com/lumenhost/lumen/internal/shared/config"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// AgentClient implements provisioning.Runtime against the agent HTTP API.
// The agent keys workloads by ref, so repeating a request for the same ref
// is a no-op on its side.
type AgentClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logger.Interface
}

// Option configures the AgentClient.
type Option func(*AgentClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *AgentClient) {
		client.httpClient = c
	}
}

// NewAgentClient creates a runtime client from config.
func NewAgentClient(cfg config.RuntimeConfig, logger logger.Interface, opts ...Option) *AgentClient {
	c := &AgentClient{
		baseURL: cfg.AgentURL,
		token:   cfg.AgentToken,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createWorkloadRequest struct {
	Name      string  `json:"name"`
	Subdomain string  `json:"subdomain"`
	CPUCores  float64 `json:"cpu_cores"`
	MemoryMB  int     `json:"memory_mb"`
	DiskGB    int     `json:"disk_gb"`
}

type createWorkloadResponse struct {
	Ref string `json:"ref"`
}

// Create provisions a new workload and returns the agent's reference for it.
func (c *AgentClient) Create(ctx context.Context, spec provisioning.WorkloadSpec) (string, error) {
	req := createWorkloadRequest{
		Name:      spec.Name,
		Subdomain: spec.Subdomain,
		CPUCores:  spec.Resources.CPUCores,
		MemoryMB:  spec.Resources.MemoryMB,
		DiskGB:    spec.Resources.DiskGB,
	}

	var resp createWorkloadResponse
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/workloads", req, &resp); err != nil {
		return "", fmt.Errorf("create workload: %w", err)
	}
	if resp.Ref == "" {
		return "", fmt.Errorf("create workload: agent returned empty ref")
	}

	c.logger.Infow("workload created", "ref", resp.Ref, "subdomain", spec.Subdomain)
	return resp.Ref, nil
}

// Start resumes a stopped workload.
func (c *AgentClient) Start(ctx context.Context, ref string) error {
	url := fmt.Sprintf("%s/workloads/%s/start", c.baseURL, ref)
	if err := c.doRequest(ctx, http.MethodPost, url, nil, nil); err != nil {
		return fmt.Errorf("start workload %s: %w", ref, err)
	}
	return nil
}

// Stop halts a running workload while keeping its data.
func (c *AgentClient) Stop(ctx context.Context, ref string) error {
	url := fmt.Sprintf("%s/workloads/%s/stop", c.baseURL, ref)
	if err := c.doRequest(ctx, http.MethodPost, url, nil, nil); err != nil {
		return fmt.Errorf("stop workload %s: %w", ref, err)
	}
	return nil
}

// Destroy removes the workload and its data. Destroying an already removed
// workload succeeds.
func (c *AgentClient) Destroy(ctx context.Context, ref string) error {
	url := fmt.Sprintf("%s/workloads/%s", c.baseURL, ref)
	err := c.doRequest(ctx, http.MethodDelete, url, nil, nil)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("destroy workload %s: %w", ref, err)
	}
	return nil
}

// Exists reports whether the agent still knows the workload.
func (c *AgentClient) Exists(ctx context.Context, ref string) (bool, error) {
	url := fmt.Sprintf("%s/workloads/%s", c.baseURL, ref)
	err := c.doRequest(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check workload %s: %w", ref, err)
	}
	return true, nil
}

// statusError preserves the HTTP status so callers can distinguish a missing
// workload from a failing agent.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("agent error: status=%d body=%s", e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func (c *AgentClient) doRequest(ctx context.Context, method, url string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection failures are transient from the queue's point of view.
		return fmt.Errorf("%w: %v", provisioning.ErrRuntimeUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status=%d", provisioning.ErrRuntimeUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{status: resp.StatusCode, body: string(respBody)}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
