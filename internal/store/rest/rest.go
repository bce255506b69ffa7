package rest

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

	"remindme/internal/reminder"
	"remindme/internal/store"
)

// Client is the REST implementation of store.Store. The backend is a black
// box; we only depend on the two endpoints below.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) store.Store {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) List(ctx context.Context) ([]reminder.Reminder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/reminders", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reminder list request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reminder list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reminder list returned %s", resp.Status)
	}

	var out []reminder.Reminder
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode reminder list: %w", err)
	}
	return out, nil
}

func (c *Client) SetCompleted(ctx context.Context, id string, completed bool) error {
	body, err := json.Marshal(map[string]bool{"completed": completed})
	if err != nil {
		return fmt.Errorf("failed to encode completion update: %w", err)
	}

	endpoint := c.baseURL + "/api/reminders/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build completion update request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("completion update for %s failed: %w", id, err)
	}
	defer resp.Body.Close()

	// Response payload is ignored by contract; drain it so the connection
	// can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("completion update for %s returned %s", id, resp.Status)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
