package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/racecountdown/internal/fetchlog"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/widget"
)

// Client calls the racecountdown REST API. The CLI and the stdio MCP
// server use it to reach a server on the tailnet.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client targeting the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Path    string
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %s returned %d: %s", e.Path, e.Status, e.Message)
}

// Identity is the caller as seen by the server.
type Identity struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Path: path, Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var payload struct {
			Error string `json:"error"`
			Field string `json:"field"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Field = payload.Field
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

func dateParams(date string) url.Values {
	if date == "" {
		return nil
	}
	return url.Values{"today": {date}}
}

func (c *Client) Me(ctx context.Context) (Identity, error) {
	var id Identity
	err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, nil, &id)
	return id, err
}

func (c *Client) Today(ctx context.Context, date string) (widget.TodayView, error) {
	var v widget.TodayView
	err := c.do(ctx, http.MethodGet, "/api/v1/today", dateParams(date), nil, &v)
	return v, err
}

func (c *Client) Countdown(ctx context.Context, date string) (plan.CountdownView, error) {
	var v plan.CountdownView
	err := c.do(ctx, http.MethodGet, "/api/v1/countdown", dateParams(date), nil, &v)
	return v, err
}

func (c *Client) Phases(ctx context.Context, date string) (widget.PhasesView, error) {
	var v widget.PhasesView
	err := c.do(ctx, http.MethodGet, "/api/v1/phases", dateParams(date), nil, &v)
	return v, err
}

func (c *Client) Weeks(ctx context.Context) ([]widget.WeekSummary, error) {
	var v []widget.WeekSummary
	err := c.do(ctx, http.MethodGet, "/api/v1/weeks", nil, nil, &v)
	return v, err
}

// Week returns the selected week, or jumps to the week of monday when set.
func (c *Client) Week(ctx context.Context, monday, date string) (widget.WeekView, error) {
	var v widget.WeekView
	if monday == "" {
		err := c.do(ctx, http.MethodGet, "/api/v1/weeks/current", dateParams(date), nil, &v)
		return v, err
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/weeks/"+url.PathEscape(monday), dateParams(date), nil, &v)
	return v, err
}

// StepWeek moves the week selection forward or back.
func (c *Client) StepWeek(ctx context.Context, dir widget.Direction, date string) (widget.WeekView, error) {
	path := "/api/v1/weeks/next"
	if dir == widget.Prev {
		path = "/api/v1/weeks/prev"
	}
	var v widget.WeekView
	err := c.do(ctx, http.MethodPost, path, dateParams(date), nil, &v)
	return v, err
}

func (c *Client) Settings(ctx context.Context) (widget.SettingsView, error) {
	var v widget.SettingsView
	err := c.do(ctx, http.MethodGet, "/api/v1/settings", nil, nil, &v)
	return v, err
}

// SaveSettings stores d. A rejected draft comes back as *plan.ValidationError.
func (c *Client) SaveSettings(ctx context.Context, d plan.Draft) (widget.SettingsView, error) {
	var v widget.SettingsView
	err := c.do(ctx, http.MethodPut, "/api/v1/settings", nil, d, &v)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && apiErr.Field != "" {
		return v, &plan.ValidationError{Field: apiErr.Field, Message: apiErr.Message}
	}
	return v, err
}

func (c *Client) RefreshFeed(ctx context.Context) (widget.Status, error) {
	var v widget.Status
	err := c.do(ctx, http.MethodPost, "/api/v1/feed/refresh", nil, nil, &v)
	return v, err
}

func (c *Client) FetchLog(ctx context.Context, limit int) ([]fetchlog.Entry, error) {
	var v []fetchlog.Entry
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	err := c.do(ctx, http.MethodGet, "/api/v1/feed/log", params, nil, &v)
	return v, err
}

// SetToday simulates the current date. An empty date clears the simulation.
func (c *Client) SetToday(ctx context.Context, date string) error {
	if date == "" {
		return c.do(ctx, http.MethodDelete, "/api/v1/dev/today", nil, nil, nil)
	}
	return c.do(ctx, http.MethodPut, "/api/v1/dev/today", nil, map[string]string{"today": date}, nil)
}
