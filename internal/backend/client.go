package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Reading is one sample as reported by the hardware backend.
type Reading struct {
	EntityID  string   `json:"entity_id"`
	Value     float64  `json:"value"`
	Timestamp *string  `json:"timestamp"`
	Quality   *float64 `json:"quality"`
}

// readResponse models the body of GET /sensors/{id}/read.
type readResponse struct {
	SensorID string     `json:"sensor_id"`
	Readings *[]Reading `json:"readings"`
}

// StartRequest is the body of POST /measurements/.
type StartRequest struct {
	SessionID string   `json:"session_id"`
	SensorIDs []string `json:"sensor_ids"`
	Interval  float64  `json:"interval"`
	Duration  *float64 `json:"duration"`
}

// Client talks to the hardware backend over its fixed HTTP contract.
// Every call carries its own timeout so one hung sensor cannot starve a
// whole collection cycle.
type Client struct {
	baseURL     string
	client      *http.Client
	callTimeout time.Duration
}

// NewClient creates a hardware backend client. callTimeout bounds each
// individual request.
func NewClient(baseURL string, callTimeout time.Duration) *Client {
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		callTimeout: callTimeout,
	}
}

// ReadSensor fetches the current readings for one sensor. The backend
// addresses sensors by name. A missing readings array counts as a
// malformed response.
func (c *Client) ReadSensor(ctx context.Context, sensorName string) ([]Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/sensors/%s/read", c.baseURL, sensorName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("received non-2xx status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed readResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal read response: %w", err)
	}
	if parsed.Readings == nil {
		return nil, fmt.Errorf("malformed read response: missing readings array")
	}
	return *parsed.Readings, nil
}

// StartMeasurement asks the backend to begin sampling for a session.
// Callers tolerate failures here: a measurement still transitions to
// running so partial or simulated data keeps flowing.
func (c *Client) StartMeasurement(ctx context.Context, req StartRequest) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal start request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/measurements/", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("received non-2xx status code: %d", resp.StatusCode)
	}
	return nil
}

// StopMeasurement asks the backend to stop sampling. Failures are logged
// and ignored by callers; local state transitions regardless.
func (c *Client) StopMeasurement(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/measurements/%s/stop", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("received non-2xx status code: %d", resp.StatusCode)
	}
	return nil
}
