package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kisanrakshak/domain/weather"
	"kisanrakshak/internal/config"
	"kisanrakshak/internal/errors"

	"github.com/jellydator/ttlcache/v3"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const serviceName = "openweathermap"

// Client fetches 3-hourly forecasts from an OpenWeatherMap-compatible API
type Client struct {
	cfg        config.WeatherConfig
	httpClient *http.Client
	cache      *ttlcache.Cache[string, *weather.Forecast]
	logger     *zap.Logger
}

// NewClient creates a forecast client. Call Close to stop cache expiry.
func NewClient(cfg config.WeatherConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	cache := ttlcache.New[string, *weather.Forecast](
		ttlcache.WithTTL[string, *weather.Forecast](ttl),
		ttlcache.WithDisableTouchOnHit[string, *weather.Forecast](),
	)
	go cache.Start()

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		logger:     logger.Named("weather"),
	}
}

// Close stops the cache janitor
func (c *Client) Close() {
	c.cache.Stop()
}

// Forecast returns the step forecast for a named place or coordinates
func (c *Client) Forecast(ctx context.Context, loc weather.Location) (*weather.Forecast, error) {
	loc.Name = strings.TrimSpace(loc.Name)
	hasCoords := loc.Lat != nil && loc.Lon != nil
	if !hasCoords && loc.Name == "" {
		return nil, errors.InvalidInput("location name or lat/lon is required")
	}
	if hasCoords && (*loc.Lat < -90 || *loc.Lat > 90 || *loc.Lon < -180 || *loc.Lon > 180) {
		return nil, errors.InvalidInput("lat/lon out of range")
	}

	key := strings.ToLower(loc.CacheKey())
	if item := c.cache.Get(key); item != nil {
		return item.Value(), nil
	}
	if c.cfg.APIKey == "" {
		return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("WEATHER_API_KEY is not set"))
	}

	params := url.Values{}
	params.Set("appid", c.cfg.APIKey)
	params.Set("units", "metric")
	if hasCoords {
		params.Set("lat", strconv.FormatFloat(*loc.Lat, 'f', 4, 64))
		params.Set("lon", strconv.FormatFloat(*loc.Lon, 'f', 4, 64))
	} else {
		params.Set("q", loc.Name)
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/data/2.5/forecast?" + params.Encode()

	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, errors.ExternalServiceError(serviceName, err)
	}
	if status == http.StatusNotFound {
		return nil, errors.NotFound("location " + loc.CacheKey())
	}
	if status != http.StatusOK {
		return nil, errors.ExternalServiceError(serviceName,
			fmt.Errorf("API returned status %d: %s", status, gjson.GetBytes(body, "message").String()))
	}

	forecast, err := ParseForecast(body)
	if err != nil {
		return nil, errors.ExternalServiceError(serviceName, err)
	}
	c.logger.Debug("fetched forecast", zap.String("key", key), zap.Int("points", len(forecast.Points)))
	c.cache.Set(key, forecast, ttlcache.DefaultTTL)
	return forecast, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// ParseForecast converts a /data/2.5/forecast response into a Forecast
func ParseForecast(body []byte) (*weather.Forecast, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	list := doc.Get("list")
	if !list.IsArray() {
		return nil, fmt.Errorf("forecast list not found in response")
	}

	city := doc.Get("city")
	lat, lon := city.Get("coord.lat").Float(), city.Get("coord.lon").Float()
	f := &weather.Forecast{
		Location: weather.Location{
			Name:    city.Get("name").String(),
			Country: city.Get("country").String(),
			Lat:     &lat,
			Lon:     &lon,
		},
		UTCOffsetSecs: int(city.Get("timezone").Int()),
	}

	list.ForEach(func(_, p gjson.Result) bool {
		f.Points = append(f.Points, weather.Point{
			Time:        time.Unix(p.Get("dt").Int(), 0).UTC(),
			TempC:       p.Get("main.temp").Float(),
			TempMinC:    p.Get("main.temp_min").Float(),
			TempMaxC:    p.Get("main.temp_max").Float(),
			Humidity:    p.Get("main.humidity").Float(),
			RainMM:      p.Get("rain.3h").Float(),
			WindMS:      p.Get("wind.speed").Float(),
			Condition:   p.Get("weather.0.main").String(),
			Description: p.Get("weather.0.description").String(),
		})
		return true
	})
	return f, nil
}
