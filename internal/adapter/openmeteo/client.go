// Package openmeteo reads daily reanalysis values from the Open-Meteo
// historical archive API.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"golang.org/x/time/rate"
)

const sourceName = "openmeteo"

// DefaultBaseURL is the public archive endpoint.
const DefaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

// dailyVariables maps metrics to archive variable names.
var dailyVariables = map[domain.Metric]string{
	domain.MetricSnowfall:       "snowfall_sum",
	domain.MetricMinTemperature: "temperature_2m_min",
}

// Client fetches daily series by latitude/longitude.
type Client struct {
	baseURL    string
	timezone   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an archive client. Values are requested in inches and
// °F, with days cut at midnight in timezone. A nil limiter disables pacing.
func NewClient(baseURL, timezone string, timeout time.Duration, limiter *rate.Limiter, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Client{
		baseURL:  baseURL,
		timezone: timezone,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		logger:  logger.With("component", sourceName),
	}
}

func (c *Client) Name() string { return sourceName }

func (c *Client) Label() string { return "Open-Meteo Archive (reanalysis)" }

func (c *Client) Linkage() domain.Linkage { return domain.LinkCoordinates }

// FetchDaily returns one observation per day in [start, end] as reported by
// the archive. Days with a null value come back as missing observations.
func (c *Client) FetchDaily(ctx context.Context, city domain.City, metric domain.Metric, start, end time.Time) ([]domain.DailyObservation, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}
	variable, ok := dailyVariables[metric]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported metric %q", sourceName, metric)
	}
	if city.Coords == nil {
		return nil, fmt.Errorf("%w: %s has no coordinates", domain.ErrMissingLinkage, city.ID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"latitude":           {strconv.FormatFloat(city.Coords.Lat, 'f', 4, 64)},
		"longitude":          {strconv.FormatFloat(city.Coords.Lon, 'f', 4, 64)},
		"start_date":         {domain.FormatDate(start)},
		"end_date":           {domain.FormatDate(end)},
		"daily":              {variable},
		"timezone":           {c.timezone},
		"precipitation_unit": {"inch"},
		"temperature_unit":   {"fahrenheit"},
	}
	body, err := c.get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	obs, err := decodeDaily(body, variable, metric)
	if err != nil {
		return nil, &domain.FetchError{Source: sourceName, Kind: domain.FetchParse, Err: err}
	}
	c.logger.Debug("fetched daily series",
		"city", city.ID,
		"metric", metric,
		"days", len(obs),
	)
	return obs, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Source: sourceName, Kind: domain.FetchTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{Source: sourceName, Kind: domain.FetchTransport, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.FetchError{
			Source: sourceName,
			Kind:   domain.FetchStatus,
			Status: resp.StatusCode,
			Err:    errors.New(errorReason(body)),
		}
	}
	return body, nil
}

// Archive API response types.

type archiveResponse struct {
	Daily map[string]json.RawMessage `json:"daily"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func errorReason(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Reason != "" {
		return e.Reason
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}

// decodeDaily pairs the parallel time and value arrays of a daily block.
func decodeDaily(body []byte, variable string, metric domain.Metric) ([]domain.DailyObservation, error) {
	var resp archiveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	rawTimes, ok := resp.Daily["time"]
	if !ok {
		return nil, errors.New("response has no daily.time")
	}
	rawValues, ok := resp.Daily[variable]
	if !ok {
		return nil, fmt.Errorf("response has no daily.%s", variable)
	}

	var times []string
	if err := json.Unmarshal(rawTimes, &times); err != nil {
		return nil, fmt.Errorf("decode daily.time: %w", err)
	}
	var values []*float64
	if err := json.Unmarshal(rawValues, &values); err != nil {
		return nil, fmt.Errorf("decode daily.%s: %w", variable, err)
	}
	if len(times) != len(values) {
		return nil, fmt.Errorf("daily.time has %d entries but daily.%s has %d", len(times), variable, len(values))
	}

	obs := make([]domain.DailyObservation, 0, len(times))
	for i, ts := range times {
		day, err := domain.ParseDate(ts)
		if err != nil {
			return nil, fmt.Errorf("daily.time[%d]: %w", i, err)
		}
		obs = append(obs, domain.DailyObservation{Date: day, Metric: metric, Value: values[i]})
	}
	return obs, nil
}
