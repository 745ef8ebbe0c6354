package listings

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

	"github.com/chachabrian/kwikliner/internal/models"
	"go.uber.org/zap"
)

// StatusError is returned for non-2xx responses from the listings service.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Client talks JSON over HTTP to the KwikLiner listings service. Each call
// is a single attempt; there is no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// AvailableJobs lists loads open to the driver.
func (c *Client) AvailableJobs(ctx context.Context, driver models.Driver) ([]models.Load, error) {
	var loads []models.Load
	if err := c.do(ctx, driver, http.MethodGet, "/jobs/available", nil, "", &loads); err != nil {
		return nil, err
	}
	return loads, nil
}

// DriverTrips lists loads the driver is involved in.
func (c *Client) DriverTrips(ctx context.Context, driver models.Driver) ([]models.Load, error) {
	var loads []models.Load
	path := "/drivers/" + url.PathEscape(driver.ID) + "/trips"
	if err := c.do(ctx, driver, http.MethodGet, path, nil, "", &loads); err != nil {
		return nil, err
	}
	return loads, nil
}

func (c *Client) SubmitBid(ctx context.Context, driver models.Driver, loadID, amount, idempotencyKey string) error {
	body := map[string]string{"amount": amount}
	return c.do(ctx, driver, http.MethodPost, "/jobs/"+url.PathEscape(loadID)+"/bids", body, idempotencyKey, nil)
}

func (c *Client) DriverCommit(ctx context.Context, driver models.Driver, loadID string, decision models.Decision, reason, idempotencyKey string) error {
	body := struct {
		Decision models.Decision `json:"decision"`
		Reason   string          `json:"reason,omitempty"`
	}{Decision: decision, Reason: reason}
	return c.do(ctx, driver, http.MethodPost, "/jobs/"+url.PathEscape(loadID)+"/driver-commit", body, idempotencyKey, nil)
}

func (c *Client) UpdateStatus(ctx context.Context, driver models.Driver, loadID string, status models.LoadStatus, idempotencyKey string) error {
	body := map[string]models.LoadStatus{"status": status}
	return c.do(ctx, driver, http.MethodPatch, "/jobs/"+url.PathEscape(loadID)+"/status", body, idempotencyKey, nil)
}

func (c *Client) do(ctx context.Context, driver models.Driver, method, path string, in any, idempotencyKey string, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if driver.Token != "" {
		req.Header.Set("Authorization", "Bearer "+driver.Token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("listings request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls {"error": ...} or {"message": ...} out of an error body.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
