package libm365

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// FlowAPIBaseURL is the base URL for the Power Automate service
	FlowAPIBaseURL = "https://api.flow.microsoft.com"

	flowAPIVersion = "2016-11-01"
)

// FlowClient is a Power Automate (Flow) service client
type FlowClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewFlowClient creates a new Power Automate client
func NewFlowClient(ctx context.Context, accessToken string) *FlowClient {
	return &FlowClient{
		httpClient:  &http.Client{},
		baseURL:     FlowAPIBaseURL,
		accessToken: accessToken,
	}
}

// Get performs a GET request against the Flow service API
func (c *FlowClient) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Flow API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// FlowEnvironment represents a Power Automate environment
type FlowEnvironment struct {
	Name       string `json:"name,omitempty"`
	ID         string `json:"id,omitempty"`
	Properties *struct {
		DisplayName string `json:"displayName,omitempty"`
		IsDefault   bool   `json:"isDefault,omitempty"`
	} `json:"properties,omitempty"`
}

// Flow represents a Power Automate flow
type Flow struct {
	Name       string `json:"name,omitempty"`
	ID         string `json:"id,omitempty"`
	Properties *struct {
		DisplayName string `json:"displayName,omitempty"`
		State       string `json:"state,omitempty"`
		CreatedTime string `json:"createdTime,omitempty"`
	} `json:"properties,omitempty"`
}

// FlowRun represents a single run of a flow
type FlowRun struct {
	Name       string             `json:"name,omitempty"`
	ID         string             `json:"id,omitempty"`
	Properties *FlowRunProperties `json:"properties,omitempty"`
}

// FlowRunProperties carries the run's timing and outcome
type FlowRunProperties struct {
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Status    string `json:"status,omitempty"`
	Trigger   *struct {
		Name string `json:"name,omitempty"`
	} `json:"trigger,omitempty"`
}

// Started parses the run's start time, returning the zero time when absent
// or unparsable.
func (p *FlowRunProperties) Started() time.Time {
	if p == nil || p.StartTime == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, p.StartTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

type flowListEnvelope[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"nextLink,omitempty"`
}

// ListEnvironments retrieves the environments available to the user
func (c *FlowClient) ListEnvironments(ctx context.Context) ([]*FlowEnvironment, error) {
	path := fmt.Sprintf("/providers/Microsoft.ProcessSimple/environments?api-version=%s", flowAPIVersion)

	data, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var envelope flowListEnvelope[*FlowEnvironment]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environments: %w", err)
	}

	return envelope.Value, nil
}

// ListFlows retrieves the flows in an environment
func (c *FlowClient) ListFlows(ctx context.Context, environment string) ([]*Flow, error) {
	if environment == "" {
		return nil, fmt.Errorf("environment is required")
	}

	path := fmt.Sprintf("/providers/Microsoft.ProcessSimple/environments/%s/flows?api-version=%s",
		url.PathEscape(environment), flowAPIVersion)

	data, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var envelope flowListEnvelope[*Flow]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flows: %w", err)
	}

	return envelope.Value, nil
}

// ListFlowRunsOptions represents options for listing flow runs
type ListFlowRunsOptions struct {
	Environment string
	FlowName    string
	Since       *time.Time // keep runs that started at or after this time
	Until       *time.Time // keep runs that started before this time
}

// ListFlowRuns retrieves the runs of a flow, newest first, optionally
// filtered by start time. The service exposes no start-time filter itself,
// so the window is applied client-side.
func (c *FlowClient) ListFlowRuns(ctx context.Context, opts *ListFlowRunsOptions) ([]*FlowRun, error) {
	if opts == nil || opts.Environment == "" {
		return nil, fmt.Errorf("environment is required")
	}
	if opts.FlowName == "" {
		return nil, fmt.Errorf("flow name is required")
	}

	path := fmt.Sprintf("/providers/Microsoft.ProcessSimple/environments/%s/flows/%s/runs?api-version=%s",
		url.PathEscape(opts.Environment), url.PathEscape(opts.FlowName), flowAPIVersion)

	data, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var envelope flowListEnvelope[*FlowRun]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow runs: %w", err)
	}

	if opts.Since == nil && opts.Until == nil {
		return envelope.Value, nil
	}

	runs := make([]*FlowRun, 0, len(envelope.Value))
	for _, run := range envelope.Value {
		started := run.Properties.Started()
		if started.IsZero() {
			continue
		}
		if opts.Since != nil && started.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && !started.Before(*opts.Until) {
			continue
		}
		runs = append(runs, run)
	}

	return runs, nil
}
