package mandi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kisanrakshak/domain/mandi"
	"kisanrakshak/internal/config"
	"kisanrakshak/internal/errors"

	"github.com/jellydator/ttlcache/v3"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const serviceName = "data.gov.in"

// Client fetches daily mandi prices from the data.gov.in resource API
type Client struct {
	cfg        config.MandiConfig
	httpClient *http.Client
	cache      *ttlcache.Cache[string, *mandi.FetchResult]
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates a price client. Call Close to stop cache expiry.
func NewClient(cfg config.MandiConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	cache := ttlcache.New[string, *mandi.FetchResult](
		ttlcache.WithTTL[string, *mandi.FetchResult](ttl),
		ttlcache.WithDisableTouchOnHit[string, *mandi.FetchResult](),
	)
	go cache.Start()

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		logger:     logger.Named("mandi"),
		now:        time.Now,
	}
}

// Close stops the cache janitor
func (c *Client) Close() {
	c.cache.Stop()
}

// Fetch returns records for the query sorted by arrival date then modal price.
// Results are cached per query.
func (c *Client) Fetch(ctx context.Context, q mandi.Query) (*mandi.FetchResult, error) {
	q = q.Normalize()
	if q.Commodity == "" && q.State == "" && q.Market == "" {
		return nil, errors.InvalidInput("commodity, state or market is required")
	}
	key := q.CacheKey()
	if item := c.cache.Get(key); item != nil {
		cached := *item.Value()
		cached.Records = append([]mandi.Record(nil), cached.Records...)
		cached.Cached = true
		return &cached, nil
	}

	if c.cfg.APIKey == "" {
		return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("DATA_GOV_API_KEY is not set"))
	}

	body, err := c.get(ctx, c.buildURL(q))
	if err != nil {
		return nil, errors.ExternalServiceError(serviceName, err)
	}

	records, total, dropped, err := ParseRecords(body)
	if err != nil {
		return nil, errors.ExternalServiceError(serviceName, err)
	}
	mandi.SortRecords(records)

	if dropped > 0 {
		c.logger.Warn("dropped unparseable price records",
			zap.String("commodity", q.Commodity), zap.Int("dropped", dropped))
	}
	c.logger.Debug("fetched prices",
		zap.String("key", key), zap.Int("records", len(records)), zap.Int("total", total))

	result := &mandi.FetchResult{
		Query:   q,
		Records: records,
		Total:   total,
		Dropped: dropped,
		Fetched: c.now(),
	}
	c.cache.Set(key, result, ttlcache.DefaultTTL)

	out := *result
	out.Records = append([]mandi.Record(nil), records...)
	return &out, nil
}

func (c *Client) buildURL(q mandi.Query) string {
	params := url.Values{}
	params.Set("api-key", c.cfg.APIKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.State != "" {
		params.Set("filters[state]", q.State)
	}
	if q.District != "" {
		params.Set("filters[district]", q.District)
	}
	if q.Commodity != "" {
		params.Set("filters[commodity]", q.Commodity)
	}
	if q.Market != "" {
		params.Set("filters[market]", q.Market)
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/resource/" + c.cfg.ResourceID + "?" + params.Encode()
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// ParseRecords reads the records array of a resource response. Records whose
// arrival date or modal price cannot be parsed are dropped and counted.
func ParseRecords(body []byte) (records []mandi.Record, total, dropped int, err error) {
	if !gjson.ValidBytes(body) {
		return nil, 0, 0, fmt.Errorf("response is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	list := doc.Get("records")
	if !list.Exists() || !list.IsArray() {
		return nil, 0, 0, fmt.Errorf("records not found in response")
	}

	list.ForEach(func(_, r gjson.Result) bool {
		date, err := time.Parse(mandi.DateLayout, strings.TrimSpace(r.Get("arrival_date").String()))
		if err != nil {
			dropped++
			return true
		}
		modal, ok := parsePrice(r.Get("modal_price"))
		if !ok {
			dropped++
			return true
		}
		minPrice, ok := parsePrice(r.Get("min_price"))
		if !ok {
			minPrice = modal
		}
		maxPrice, ok := parsePrice(r.Get("max_price"))
		if !ok {
			maxPrice = modal
		}
		records = append(records, mandi.Record{
			State:       strings.TrimSpace(r.Get("state").String()),
			District:    strings.TrimSpace(r.Get("district").String()),
			Market:      strings.TrimSpace(r.Get("market").String()),
			Commodity:   strings.TrimSpace(r.Get("commodity").String()),
			Variety:     strings.TrimSpace(r.Get("variety").String()),
			Grade:       strings.TrimSpace(r.Get("grade").String()),
			ArrivalDate: date,
			MinPrice:    minPrice,
			MaxPrice:    maxPrice,
			ModalPrice:  modal,
		})
		return true
	})

	total = int(doc.Get("total").Int())
	if total == 0 {
		total = len(records) + dropped
	}
	return records, total, dropped, nil
}

// parsePrice accepts numbers or numeric strings such as "2,450"
func parsePrice(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), v.Float() >= 0
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
