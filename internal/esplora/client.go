package esplora

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"rbftrack/internal/metrics"
)

// ErrNotFound marks a transaction unknown to (or evicted from) the mempool.
// Callers treat it as a skip, not a failure.
var ErrNotFound = errors.New("transaction not found")

const (
	maxAttempts = 3
	backoffBase = 300 * time.Millisecond
)

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.code)
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client is a read-only consumer of an Esplora-style HTTP API. Requests are
// retried with exponential backoff on network errors and transient status
// codes only.
type Client struct {
	http     HTTPDoer
	baseURL  string
	logs     *zap.SugaredLogger
	counters *metrics.Counters
}

func NewClient(httpClient HTTPDoer, baseURL string, logger *zap.SugaredLogger, counters *metrics.Counters) *Client {
	return &Client{
		http:     httpClient,
		baseURL:  baseURL,
		logs:     logger,
		counters: counters,
	}
}

// MempoolTxids returns the full current mempool snapshot as a txid list.
func (c *Client) MempoolTxids(ctx context.Context) ([]string, error) {
	body, status, err := c.get(ctx, "/mempool/txids")
	if err != nil {
		return nil, fmt.Errorf("fetch mempool txids: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch mempool txids: %w", statusError{status})
	}

	var txids []string
	if err := json.Unmarshal(body, &txids); err != nil {
		return nil, fmt.Errorf("decode mempool txids: %w", err)
	}

	return txids, nil
}

// Tx fetches full transaction detail. A 404 yields ErrNotFound.
func (c *Client) Tx(ctx context.Context, txid string) (*Tx, error) {
	c.counters.IncRequests()

	body, status, err := c.get(ctx, "/tx/"+txid)
	if err != nil {
		var se statusError
		if errors.As(err, &se) {
			c.counters.IncHTTPErrors()
		} else {
			c.counters.IncNetworkErrors()
		}
		return nil, fmt.Errorf("fetch tx %s: %w", txid, err)
	}

	switch {
	case status == http.StatusNotFound:
		c.counters.IncNotFound()
		return nil, ErrNotFound
	case status != http.StatusOK:
		c.counters.IncHTTPErrors()
		return nil, fmt.Errorf("fetch tx %s: %w", txid, statusError{code: status})
	}

	var tx Tx
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("decode tx %s: %w", txid, err)
	}

	c.counters.IncSuccess()
	return &tx, nil
}

// get performs one GET with bounded retries. Non-transient statuses are
// returned to the caller as-is, never retried.
func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	var body []byte
	var status int

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("build request: %w", err))
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("do request: %w", err)
			}
			defer resp.Body.Close()

			if transientStatus(resp.StatusCode) {
				return statusError{code: resp.StatusCode}
			}

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read response body: %w", err)
			}

			body = b
			status = resp.StatusCode
			return nil
		},
		retry.Attempts(maxAttempts),
		retry.Delay(backoffBase),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)

	return body, status, err
}
