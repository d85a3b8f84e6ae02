// Package gamma is the read-only adapter for the prediction-market APIs.
//
// client.go - Paginated market listings from the gamma API and per-market
// trade lists from the data API. Failures never propagate into the
// scorers: callers get an empty slice and the next cron tick retries.
package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/0xLaVaN/prescience/internal/types"
)

const (
	defaultTimeout = 10 * time.Second
	pageSize       = 100
	requestsPerSec = 5
	requestBurst   = 10
)

// Client talks to the gamma and data APIs with a bounded request budget.
type Client struct {
	gammaURL string
	dataURL  string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
}

// NewClient creates a client for the given API base URLs.
func NewClient(gammaURL, dataURL string) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gamma",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("⚡ Circuit breaker state change")
		},
	})

	return &Client{
		gammaURL: gammaURL,
		dataURL:  dataURL,
		http:     &http.Client{Timeout: defaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSec), requestBurst),
		breaker:  breaker,
	}
}

// ListActiveMarkets fetches up to limit active markets, paginated.
// Markets missing a conditionId or question are filtered at the source.
// On upstream failure the partial result gathered so far is returned
// along with the error so HTTP callers can surface a 500.
func (c *Client) ListActiveMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	markets := make([]types.Market, 0, limit)

	for offset := 0; len(markets) < limit; offset += pageSize {
		q := url.Values{}
		q.Set("active", "true")
		q.Set("closed", "false")
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))
		q.Set("order", "volume24hr")
		q.Set("ascending", "false")

		var page []types.Market
		if err := c.getJSON(ctx, c.gammaURL+"/markets?"+q.Encode(), &page); err != nil {
			log.Error().Err(err).Int("offset", offset).Msg("Market listing failed")
			return markets, err
		}
		if len(page) == 0 {
			break
		}

		for _, m := range page {
			if m.ConditionID == "" || m.Question == "" {
				continue
			}
			markets = append(markets, m)
			if len(markets) >= limit {
				break
			}
		}
	}

	log.Debug().Int("markets", len(markets)).Msg("🔍 Market listing complete")
	return markets, nil
}

// Trades fetches up to limit recent trades for one market. Transport or
// parse failures yield an empty slice; the per-market analysis degrades
// to volume-only features.
func (c *Client) Trades(ctx context.Context, conditionID string, limit int) []types.Trade {
	q := url.Values{}
	q.Set("market", conditionID)
	q.Set("limit", strconv.Itoa(limit))

	var trades []types.Trade
	if err := c.getJSON(ctx, c.dataURL+"/trades?"+q.Encode(), &trades); err != nil {
		log.Debug().Err(err).Str("condition_id", conditionID).Msg("Trade fetch failed")
		return nil
	}
	return trades
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream returned %d", resp.StatusCode)
		}

		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	return err
}
