// Package restapi is the outbound client for the upstream course/progress REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pot-code/learn-gateway/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// maxErrorBody bytes of an error response read to build the message
const maxErrorBody = 4 << 10

// Client calls the upstream API with the learner's bearer token
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient create a Client rooted at baseURL, timeout <= 0 keeps http.Client's default
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Get decodes the JSON response of GET path into out
func (cl *Client) Get(ctx context.Context, path, token string, out interface{}) error {
	return cl.Do(ctx, http.MethodGet, path, token, nil, out)
}

// Post sends body as JSON and decodes the response into out, out may be nil
func (cl *Client) Post(ctx context.Context, path, token string, body, out interface{}) error {
	return cl.Do(ctx, http.MethodPost, path, token, body, out)
}

// Do performs one request, every failure is returned as *APIError
func (cl *Client) Do(ctx context.Context, method, path, token string, body, out interface{}) error {
	logger := logging.ExtractLoggerFromContext(ctx)
	startTime := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "failed to encode request body", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, cl.baseURL+path, reader)
	if err != nil {
		return &APIError{Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := cl.http.Do(req)
	if err != nil {
		logger.Warn("upstream request failed", zap.String("http.request.method", method),
			zap.String("url.path", path), zap.Error(err))
		return &APIError{Message: "network error, please try again", Err: err}
	}
	defer res.Body.Close()

	logger.Debug("upstream request", zap.String("http.request.method", method),
		zap.String("url.path", path),
		zap.Int("http.response.status_code", res.StatusCode),
		zap.Duration("event.duration", time.Since(startTime)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := ioutil.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &APIError{Message: errorMessage(res.StatusCode, raw), Status: res.StatusCode}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &APIError{
			Message: "malformed response from upstream",
			Status:  res.StatusCode,
			Err:     fmt.Errorf("decode %s %s: %w", method, path, err),
		}
	}
	return nil
}

// errorMessage picks the human readable message of an upstream error body
func errorMessage(status int, raw []byte) string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, m := range []string{body.Detail, body.Message, body.Error} {
			if m != "" {
				return m
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", status)
}
