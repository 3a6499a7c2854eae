// Package submit posts converted documents to an analysis service.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"nmrcore/internal/document"
)

// maxErrorBody caps how much of an error response ends up in StatusError.
const maxErrorBody = 2048

// Client talks to one analysis service. BaseURL is required; HTTPClient
// defaults to http.DefaultClient. Deadlines come from the caller's context.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// Receipt is the service's acknowledgement of an accepted document.
type Receipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StatusError reports a response outside the 2xx range. Body is truncated.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("analysis service returned status %d", e.Code)
	}
	return fmt.Sprintf("analysis service returned status %d: %s", e.Code, e.Body)
}

// Submit posts the document once and decodes the receipt. There are no
// retries; callers decide whether a StatusError is worth another attempt.
func (c *Client) Submit(ctx context.Context, doc *document.Document) (Receipt, error) {
	if doc == nil {
		return Receipt{}, fmt.Errorf("nil document")
	}
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return Receipt{}, fmt.Errorf("base URL required")
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode document: %w", err)
	}

	url := strings.TrimSuffix(base, "/") + "/api/v1/structures"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("post document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Receipt{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return Receipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	return receipt, nil
}
