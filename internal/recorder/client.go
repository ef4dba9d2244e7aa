// Package recorder is the HTTP adapter for the external transaction-history
// service. Transport failures are retried a bounded number of times and then
// surfaced as credit.ErrOperationFailed; raw transport errors never leak to
// callers.
package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sgi/credit/internal/credit"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	client  *http.Client
	retries int
}

// NewClient builds a recorder client. retries is the number of additional
// attempts after a transient failure; the initial attempt always runs.
func NewClient(baseURL string, retries int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		retries: retries,
	}
}

// Record durably registers a charge or payment with the history service and
// returns its acknowledgment.
func (c *Client) Record(ctx context.Context, rec credit.TransactionRecord) (*credit.TransactionRecord, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding transaction: %w", err)
	}

	var ack credit.TransactionRecord
	if err := c.do(ctx, http.MethodPost, "/v1/transactions", body, &ack); err != nil {
		return nil, err
	}

	return &ack, nil
}

// History returns every recorded movement for the product.
func (c *Client) History(ctx context.Context, productID string) ([]credit.TransactionRecord, error) {
	var records []credit.TransactionRecord
	if err := c.do(ctx, http.MethodGet, "/v1/transactions/"+productID+"/card", nil, &records); err != nil {
		return nil, err
	}

	return records, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%v: %w", ctx.Err(), credit.ErrOperationFailed)
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}

		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		} else {
			reader = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		retry, err := handleResponse(resp, out)
		if err == nil {
			return nil
		}

		lastErr = err
		if !retry {
			break
		}
	}

	slog.Error("transaction recorder request failed", "method", method, "path", path, "error", lastErr)

	return fmt.Errorf("recorder %s %s: %w", method, path, credit.ErrOperationFailed)
}

// handleResponse decodes a successful response into out. It reports whether
// the request may be retried: 5xx responses are transient, anything else is
// final.
func handleResponse(resp *http.Response, out any) (retry bool, err error) {
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return true, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}

	return false, nil
}
