// Package remote is the HTTP client for the tutor API that owns users,
// subscriptions, documents and the retrieval backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"arabic-chatbot.app/internal/logger/sl"
)

const maxResponseBytes = 4 << 20

type Client struct {
	httpClient   *http.Client
	uploadClient *http.Client
	baseURL      string
}

// NewClient creates a client for baseURL. Uploads get their own, longer timeout.
func NewClient(baseURL string, timeout, uploadTimeout time.Duration) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
		baseURL:      strings.TrimSuffix(baseURL, "/"),
	}
}

// call describes one request. route is the templated path used as metric label.
type call struct {
	method string
	route  string
	path   string
	token  string
	body   any
}

func (c *Client) doJSON(ctx context.Context, cl call, out any) error {
	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(c.httpClient, req, cl, out)
}

func (c *Client) send(hc *http.Client, req *http.Request, cl call, out any) error {
	req.Header.Set("Accept", "application/json")
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		observe(cl, "error", start)
		slog.Warn("Remote API request failed", "route", cl.route, "method", cl.method, sl.Err(err))
		return fmt.Errorf("%s %s: %w", cl.method, cl.route, err)
	}
	defer resp.Body.Close()
	observe(cl, strconv.Itoa(resp.StatusCode), start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response of %s %s: %w", cl.method, cl.route, err)
	}

	if resp.StatusCode >= 400 {
		apiErr := decodeAPIError(resp.StatusCode, body)
		slog.Info("Remote API returned an error", "route", cl.route, "method", cl.method, "status_code", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		slog.Error("Remote API returned malformed JSON", "route", cl.route, "status_code", resp.StatusCode, sl.Err(err))
		return fmt.Errorf("decode response of %s %s: %w", cl.method, cl.route, err)
	}
	return nil
}

func observe(cl call, code string, start time.Time) {
	requestsTotal.WithLabelValues(cl.route, cl.method, code).Inc()
	requestDuration.WithLabelValues(cl.route, cl.method, code).Observe(time.Since(start).Seconds())
}
