package wu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/wu-history-viewer/internal/observability"
)

// maxBodyBytes bounds how much of an upstream body is read into memory.
const maxBodyBytes = 8 << 20

// ErrMissingAPIKey is returned when no Weather Underground API key is configured.
var ErrMissingAPIKey = errors.New("weather underground API key not configured")

// emptyHistory stands in for the empty body WU sends (with 204) for days
// without data, so callers always receive a JSON document.
var emptyHistory = []byte(`{"observations":[]}`)

// UpstreamError carries a non-2xx response so the proxy can forward it verbatim.
type UpstreamError struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather underground API error: status %d: %s", e.StatusCode, e.Body)
}

// Client fetches station history from the Weather Underground PWS API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a history client. An empty apiKey is allowed; every fetch
// then fails with ErrMissingAPIKey.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// CheckReadiness reports whether the client can reach upstream at all.
func (c *Client) CheckReadiness(_ context.Context) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// FetchHistory returns the raw JSON body of the "history/all" endpoint for
// one station and day. date uses the provider layout YYYYMMDD.
func (c *Client) FetchHistory(ctx context.Context, stationID, date string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{
		"stationId":        {stationID},
		"date":             {date},
		"format":           {"json"},
		"units":            {"m"},
		"numericPrecision": {"decimal"},
		"apiKey":           {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request %s/%s: %w", stationID, date, stripURL(err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("history request %s/%s: %w", stationID, date, stripURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read history response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.UpstreamRequests.WithLabelValues("status").Inc()
		c.logger.Warn("weather underground returned error status",
			"station_id", stationID,
			"date", date,
			"status", resp.StatusCode,
		)
		return nil, &UpstreamError{
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        body,
		}
	}

	c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
	if len(bytes.TrimSpace(body)) == 0 {
		return emptyHistory, nil
	}
	return body, nil
}

// stripURL drops a *url.Error wrapper. Its message carries the request URL,
// which includes the API key.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
