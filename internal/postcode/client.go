// Package postcode resolves UK postcodes to coordinates through a
// postcodes.io-style HTTP API. The upstream is treated as unreliable:
// any transport or decode failure degrades to a not-found result so
// callers fall back to prefix matching.
package postcode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

type Result struct {
	Found     bool
	Latitude  float64
	Longitude float64
}

// Lookup is the narrow interface the engine consumes.
type Lookup interface {
	Lookup(ctx context.Context, postcode string) Result
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	cache       *cache.Cache
	negativeTTL time.Duration
	log         zerolog.Logger
}

func NewClient(baseURL string, timeout, ttl time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		cache:       cache.New(ttl, ttl),
		negativeTTL: time.Hour,
		log:         log,
	}
}

type lookupResponse struct {
	Status int `json:"status"`
	Result struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"result"`
}

// Lookup resolves a postcode to coordinates, memoizing both positive
// and negative answers. Negative answers are kept on a shorter TTL so a
// transient upstream outage does not pin misses for a full day.
func (c *Client) Lookup(ctx context.Context, postcode string) Result {
	key := strings.ToUpper(strings.Join(strings.Fields(postcode), ""))
	if key == "" {
		return Result{}
	}

	if cached, ok := c.cache.Get(key); ok {
		return cached.(Result)
	}

	result := c.fetch(ctx, key)
	ttl := cache.DefaultExpiration
	if !result.Found {
		ttl = c.negativeTTL
	}
	c.cache.Set(key, result, ttl)
	return result
}

func (c *Client) fetch(ctx context.Context, postcode string) Result {
	endpoint := fmt.Sprintf("%s/postcodes/%s", c.baseURL, url.PathEscape(postcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.Warn().Err(err).Str("postcode", postcode).Msg("postcode lookup request build failed")
		return Result{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("postcode", postcode).Msg("postcode lookup failed")
		return Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("postcode", postcode).Msg("postcode lookup returned non-200")
		return Result{}
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn().Err(err).Str("postcode", postcode).Msg("postcode lookup decode failed")
		return Result{}
	}

	return Result{
		Found:     true,
		Latitude:  body.Result.Latitude,
		Longitude: body.Result.Longitude,
	}
}
