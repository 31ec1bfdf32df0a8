package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
)

const defaultOracleTimeout = 5 * time.Second

// Client talks to an exchangerate-api style oracle: GET {base_url}/{BASE} -> {base, date, rates}.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg internal.CurrencyConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Rates(ctx context.Context, base string) (*RateTable, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(strings.ToUpper(base))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate oracle returned status %d", resp.StatusCode)
	}

	var table RateTable
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if len(table.Rates) == 0 {
		return nil, fmt.Errorf("rate oracle returned no rates for %s", base)
	}

	c.logger.DebugContext(ctx, "exchange rates fetched",
		"base", table.Base,
		"date", table.Date,
		"rates", len(table.Rates),
		"duration_ms", time.Since(start).Milliseconds())

	return &table, nil
}
