// Package historyfeed fetches the historical-record window from the
// persistence service backing the oracle.
package historyfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/Alias1177/OracleGuard/internal/platform/http"
	"github.com/Alias1177/OracleGuard/models"
)

// Client is the history feed API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new history feed client.
type ClientOptions struct {
	BaseURL         string
	APIKey          string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new history feed client.
func NewClient(opts ClientOptions) *Client {
	httpOpts := platformhttp.ClientOptions{
		Timeout:         opts.RequestTimeout,
		RequestsPerSec:  opts.RequestsPerSec,
		MaxRetries:      opts.MaxRetries,
		MaxRetryTimeout: opts.MaxRetryTimeout,
	}

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: platformhttp.NewClient(httpOpts),
		logger:     log.With().Str("component", "historyfeed_client").Logger(),
	}
}

// feedResponse is the wire shape of the history endpoint.
type feedResponse struct {
	Records []models.HistoricalRecord `json:"records"`
	Status  string                    `json:"status"`
	Message string                    `json:"message,omitempty"`
}

// GetRecords fetches up to limit historical records of the given data
// type, most recent first.
func (c *Client) GetRecords(ctx context.Context, dataType string, limit int) ([]models.HistoricalRecord, error) {
	endpoint := fmt.Sprintf(
		"%s/records?type=%s&limit=%d",
		c.baseURL,
		url.QueryEscape(dataType),
		limit,
	)

	c.logger.Debug().Str("url", endpoint).Msg("Fetching historical records")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data feedResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing history feed response")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" {
		c.logger.Error().Str("message", data.Message).Msg("History feed error")
		return nil, fmt.Errorf("history feed error: %s", data.Message)
	}

	c.logger.Debug().Int("count", len(data.Records)).Msg("Fetched historical records")
	return data.Records, nil
}
