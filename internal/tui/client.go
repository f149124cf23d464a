// Package tui renders the polling dashboard: a status pane plus live
// server and application log panes fed by the HTTP API.
package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/d41928/shellherd/internal/api"
	"github.com/d41928/shellherd/internal/model"
)

// Client is a small HTTP client for the supervisor API. Requests carry
// the TUI header so polling does not flood the access log.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API at host:port.
func NewClient(host string, port int) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		http:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Status fetches the current run snapshot.
func (c *Client) Status() (*model.Run, error) {
	var snap model.Run
	if err := c.getJSON("/status?format=json", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Logs fetches the last n captured log lines.
func (c *Client) Logs(n int) (*model.LogsResult, error) {
	var result model.LogsResult
	path := "/logs?format=json&lines=" + strconv.Itoa(n)
	if err := c.getJSON(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Kill requests termination of the current run.
func (c *Client) Kill(sig model.Signal) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/kill?format=json&type="+string(sig), nil)
	if err != nil {
		return err
	}
	req.Header.Set(api.TUIHeader, "1")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Healthy reports whether the server answers /health.
func (c *Client) Healthy() bool {
	var health model.HealthResponse
	return c.getJSON("/health?format=json", &health) == nil
}

func (c *Client) getJSON(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(api.TUIHeader, "1")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s", payload.Error)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
