package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	cacheSource = "chart"
	cacheTTL    = 24 * time.Hour

	// Fetch windows are padded so transactions on non-trading days still
	// find a nearby close to value against.
	bufferBeforeDays = 10
	bufferAfterDays  = 5
)

// chartResponse mirrors the chart API payload. Closes may be null on
// holidays, so they are decoded as pointers.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Client fetches daily closing prices from a chart API, with a sqlite-backed
// response cache in front of the network.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *CacheRepository
	log        zerolog.Logger
}

// NewClient creates a chart client. cache may be nil to disable caching.
func NewClient(baseURL string, cache *CacheRepository, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		cache:      cache,
		log:        log.With().Str("component", "price_client").Logger(),
	}
}

// FetchDaily returns daily closes for a symbol covering [from, to], padded by
// the fetch buffers. Null and non-positive closes are skipped.
func (c *Client) FetchDaily(ctx context.Context, symbol string, from, to time.Time) (Series, error) {
	start := from.AddDate(0, 0, -bufferBeforeDays)
	end := to.AddDate(0, 0, bufferAfterDays)
	key := fmt.Sprintf("%s|%s|%s", symbol, start.Format(dateLayout), end.Format(dateLayout))

	if c.cache != nil {
		if payload, ok := c.cache.GetIfFresh(cacheSource, key, cacheTTL); ok {
			var series Series
			if err := msgpack.Unmarshal(payload, &series); err == nil {
				c.log.Debug().Str("symbol", symbol).Int("rows", len(series)).Msg("Price cache hit")
				return series, nil
			}
			c.log.Warn().Str("symbol", symbol).Msg("Failed to decode cached prices, refetching")
		}
	}

	series, err := c.fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && len(series) > 0 {
		payload, err := msgpack.Marshal(series)
		if err == nil {
			if err := c.cache.Set(cacheSource, key, payload); err != nil {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache prices")
			}
		}
	}

	return series, nil
}

func (c *Client) fetch(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d",
		c.baseURL, symbol, start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "xirrcalc/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("price API returned status %d for %s: %s", resp.StatusCode, symbol, string(body))
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("price API error for %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("price API returned no data for %s", symbol)
	}

	result := parsed.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	var series Series
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		series = append(series, Price{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: *closes[i],
		})
	}
	series.Sort()

	c.log.Debug().Str("symbol", symbol).Int("rows", len(series)).Msg("Fetched prices")
	return series, nil
}
