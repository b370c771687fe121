package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vlambert/plantalert/internal/domain/coldsnap"
	"github.com/vlambert/plantalert/internal/logger"
)

// defaultBaseURL is the public Open-Meteo forecast endpoint.
const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// hourlyTimeLayout is how Open-Meteo renders hourly timestamps when asked
// for UTC output; there is no zone suffix.
const hourlyTimeLayout = "2006-01-02T15:04"

// hoursPerDay converts the configured horizon to the provider's day granularity.
const hoursPerDay = 24

// Config describes the forecast to fetch and how to flag its samples.
type Config struct {
	// Latitude of the forecast location, in decimal degrees.
	Latitude float64
	// Longitude of the forecast location, in decimal degrees.
	Longitude float64
	// Timezone renders the local timestamps stamped onto samples.
	Timezone *time.Location
	// Thresholds derives the per-band cold flags.
	Thresholds coldsnap.Thresholds
	// ForecastHours is the lookahead horizon.
	ForecastHours int
	// BaseURL overrides the provider endpoint, used by tests.
	BaseURL string
	// HTTPClient overrides the HTTP client, used by tests.
	HTTPClient *http.Client
}

// OpenMeteoClient fetches hourly temperatures from the Open-Meteo API.
type OpenMeteoClient struct {
	cfg     Config
	baseURL string
	httpCfg httpClientConfig
	circuit *gobreaker.CircuitBreaker
	// now is the clock, overridable in tests.
	now func() time.Time
}

// NewOpenMeteoClient creates a client with retries and a circuit breaker
// sized for an hourly cron-style workload.
func NewOpenMeteoClient(cfg Config) *OpenMeteoClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}

	//nolint:exhaustruct // Remaining gobreaker settings keep their defaults.
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoClient{
		cfg:     cfg,
		baseURL: baseURL,
		httpCfg: httpClientConfig{
			client: httpClient,
			backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		now:     time.Now,
	}
}

// Forecast fetches the hourly forecast and returns the samples covering now
// through the configured horizon, along with the raw response body for
// caching. An empty provider response yields empty samples, not an error.
func (c *OpenMeteoClient) Forecast(ctx context.Context) ([]coldsnap.TemperatureSample, []byte, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(c.cfg.Latitude, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(c.cfg.Longitude, 'f', 4, 64))
		values.Set("hourly", "temperature_2m")
		values.Set("timezone", "UTC")
		values.Set("forecast_days", strconv.Itoa(c.forecastDays()))

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read forecast body: %w", err)
	}

	var payload struct {
		Hourly struct {
			Time          []string  `json:"time"`
			Temperature2M []float64 `json:"temperature_2m"`
		} `json:"hourly"`
	}

	if err = json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("decode forecast: %w", err)
	}

	samples, err := c.toSamples(payload.Hourly.Time, payload.Hourly.Temperature2M)
	if err != nil {
		return nil, nil, err
	}

	logger.InfoKV(ctx, "Forecast fetched",
		"hours", len(samples),
		"horizon_hours", c.cfg.ForecastHours,
	)

	return samples, body, nil
}

// forecastDays converts the hour horizon to whole provider days, rounding up
// and adding one day of slack so the horizon is always covered.
func (c *OpenMeteoClient) forecastDays() int {
	days := (c.cfg.ForecastHours + hoursPerDay - 1) / hoursPerDay

	return days + 1
}

// toSamples pairs the hourly time/temperature arrays into samples, keeping
// only entries between now (truncated to the hour) and the horizon.
func (c *OpenMeteoClient) toSamples(times []string, temps []float64) ([]coldsnap.TemperatureSample, error) {
	if len(times) != len(temps) {
		return nil, fmt.Errorf("forecast arrays disagree: %d times, %d temperatures", len(times), len(temps))
	}

	var (
		nowUTC  = c.now().UTC().Truncate(time.Hour)
		horizon = nowUTC.Add(time.Duration(c.cfg.ForecastHours) * time.Hour)
		samples []coldsnap.TemperatureSample
	)

	for i, raw := range times {
		utc, err := time.ParseInLocation(hourlyTimeLayout, raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse forecast time %q: %w", raw, err)
		}

		if utc.Before(nowUTC) {
			continue
		}

		if utc.After(horizon) {
			break
		}

		samples = append(samples, coldsnap.NewSample(
			utc,
			utc.In(c.cfg.Timezone),
			temps[i],
			c.cfg.Thresholds,
		))
	}

	return samples, nil
}
