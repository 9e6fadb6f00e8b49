package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paritytech/subport/api"
	"github.com/stretchr/testify/mock"
)

// OnboardingProvider is implemented by OnboardingClient and its mock.
type OnboardingProvider interface {
	Onboard(ctx context.Context, req *api.OnboardRequest) (*api.OnboardResponse, error)
	Plan(ctx context.Context, req *api.OnboardRequest) (*api.PlanResponse, error)
	Sovereign(ctx context.Context, paraID uint32) (*api.SovereignResponse, error)
}

// OnboardingClient talks to a running onboarding service.
type OnboardingClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOnboardingClient creates a client. The timeout must cover finality
// of the onboarding batch; it defaults to 10 minutes.
func NewOnboardingClient(baseURL string, timeout ...time.Duration) *OnboardingClient {
	clientTimeout := 10 * time.Minute
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &OnboardingClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// Onboard runs the onboarding workflow on the service.
func (c *OnboardingClient) Onboard(ctx context.Context, req *api.OnboardRequest) (*api.OnboardResponse, error) {
	var resp api.OnboardResponse
	// runs that reached a terminal state answer with an OnboardResponse
	// whatever their status code
	if err := c.do(ctx, http.MethodPost, "/api/onboard", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Plan evaluates the workflow without submitting.
func (c *OnboardingClient) Plan(ctx context.Context, req *api.OnboardRequest) (*api.PlanResponse, error) {
	var resp api.PlanResponse
	if err := c.do(ctx, http.MethodPost, "/api/plan", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sovereign returns the sovereign account of paraID on the service's target chain.
func (c *OnboardingClient) Sovereign(ctx context.Context, paraID uint32) (*api.SovereignResponse, error) {
	var resp api.SovereignResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sovereign/%d", paraID), nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StatusError is returned for responses the client cannot use.
type StatusError struct {
	StatusCode int
	Message    string
	ExitCode   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service returned %d: %s", e.StatusCode, e.Message)
}

func (c *OnboardingClient) do(ctx context.Context, method, path string, body, out any, decodeAny bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error, ExitCode: errResp.ExitCode}
		}
		if !decodeAny {
			return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &StatusError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("could not parse response: %v", err)}
	}
	return nil
}

// MockOnboardingProvider implements OnboardingProvider for testing.
type MockOnboardingProvider struct {
	mock.Mock
}

func (m *MockOnboardingProvider) Onboard(ctx context.Context, req *api.OnboardRequest) (*api.OnboardResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*api.OnboardResponse)
	return resp, args.Error(1)
}

func (m *MockOnboardingProvider) Plan(ctx context.Context, req *api.OnboardRequest) (*api.PlanResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*api.PlanResponse)
	return resp, args.Error(1)
}

func (m *MockOnboardingProvider) Sovereign(ctx context.Context, paraID uint32) (*api.SovereignResponse, error) {
	args := m.Called(ctx, paraID)
	resp, _ := args.Get(0).(*api.SovereignResponse)
	return resp, args.Error(1)
}
