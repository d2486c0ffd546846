// Package noaa reads daily station observations from the NOAA NCEI Climate
// Data Online (CDO) v2 API, GHCN-Daily dataset.
package noaa

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

const sourceName = "noaa"

// DefaultBaseURL is the CDO v2 data endpoint.
const DefaultBaseURL = "https://www.ncei.noaa.gov/cdo-web/api/v2/data"

const (
	dataset = "GHCND"
	// pageLimit is the largest page CDO serves.
	pageLimit = 1000
)

var dataTypes = map[domain.Metric]string{
	domain.MetricSnowfall:       "SNOW",
	domain.MetricMinTemperature: "TMIN",
}

// Client fetches daily series by GHCND station id.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a CDO client. CDO allows five requests per second per
// token; limiter should stay under that. A nil limiter disables pacing.
func NewClient(baseURL, token string, timeout time.Duration, limiter *rate.Limiter, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		logger:  logger.With("component", sourceName),
	}
}

func (c *Client) Name() string { return sourceName }

func (c *Client) Label() string { return "NOAA NCEI GHCN-Daily (ground stations)" }

func (c *Client) Linkage() domain.Linkage { return domain.LinkStation }

// FetchDaily returns every reported value for the station in [start, end], in
// inches or °F. Days the station did not report are simply absent. Ranges
// longer than a year are split into yearly requests.
func (c *Client) FetchDaily(ctx context.Context, city domain.City, metric domain.Metric, start, end time.Time) ([]domain.DailyObservation, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}
	dataType, ok := dataTypes[metric]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported metric %q", sourceName, metric)
	}
	if city.StationID == "" {
		return nil, fmt.Errorf("%w: %s has no station id", domain.ErrMissingLinkage, city.ID)
	}

	var obs []domain.DailyObservation
	for _, w := range yearWindows(start, end) {
		part, err := c.fetchWindow(ctx, city.StationID, dataType, metric, w[0], w[1])
		if err != nil {
			return nil, err
		}
		obs = append(obs, part...)
	}
	c.logger.Debug("fetched daily series",
		"city", city.ID,
		"station", city.StationID,
		"metric", metric,
		"records", len(obs),
	)
	return obs, nil
}

// yearWindows splits [start, end] into consecutive windows of at most one year.
func yearWindows(start, end time.Time) [][2]time.Time {
	var windows [][2]time.Time
	end = domain.CivilDate(end)
	for from := domain.CivilDate(start); !from.After(end); {
		to := from.AddDate(1, 0, -1)
		if to.After(end) {
			to = end
		}
		windows = append(windows, [2]time.Time{from, to})
		from = to.AddDate(0, 0, 1)
	}
	return windows
}

// fetchWindow pages through one sub-year window. CDO offsets are 1-based.
func (c *Client) fetchWindow(ctx context.Context, station, dataType string, metric domain.Metric, start, end time.Time) ([]domain.DailyObservation, error) {
	var obs []domain.DailyObservation
	offset := 1
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		params := url.Values{
			"datasetid":  {dataset},
			"datatypeid": {dataType},
			"stationid":  {station},
			"startdate":  {domain.FormatDate(start)},
			"enddate":    {domain.FormatDate(end)},
			"units":      {"standard"},
			"limit":      {strconv.Itoa(pageLimit)},
			"offset":     {strconv.Itoa(offset)},
		}
		body, err := c.get(ctx, c.baseURL+"?"+params.Encode())
		if err != nil {
			return nil, err
		}

		pg, err := decodePage(body, dataType, metric)
		if err != nil {
			return nil, &domain.FetchError{Source: sourceName, Kind: domain.FetchParse, Err: err}
		}
		obs = append(obs, pg.observations...)

		if pg.returned == 0 || pg.returned < pageLimit || offset+pg.returned > pg.count {
			return obs, nil
		}
		offset += pg.returned
	}
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("token", c.token)

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
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, &domain.FetchError{
			Source: sourceName,
			Kind:   domain.FetchStatus,
			Status: resp.StatusCode,
			Err:    errors.New(string(body)),
		}
	}
	return body, nil
}

// CDO API response types.

type dataResponse struct {
	Metadata struct {
		ResultSet struct {
			Offset int `json:"offset"`
			Count  int `json:"count"`
			Limit  int `json:"limit"`
		} `json:"resultset"`
	} `json:"metadata"`
	Results []record `json:"results"`
}

type record struct {
	Date     string   `json:"date"` // 2025-01-14T00:00:00
	DataType string   `json:"datatype"`
	Station  string   `json:"station"`
	Value    *float64 `json:"value"`
}

type page struct {
	observations []domain.DailyObservation
	returned     int
	count        int
}

// decodePage parses one CDO page. An empty body or {} means the station
// reported nothing in the window.
func decodePage(body []byte, dataType string, metric domain.Metric) (page, error) {
	if len(body) == 0 {
		return page{}, nil
	}
	var resp dataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return page{}, fmt.Errorf("decode response: %w", err)
	}

	p := page{
		observations: make([]domain.DailyObservation, 0, len(resp.Results)),
		returned:     len(resp.Results),
		count:        resp.Metadata.ResultSet.Count,
	}
	for i, r := range resp.Results {
		if r.DataType != "" && r.DataType != dataType {
			continue
		}
		if len(r.Date) < len(time.DateOnly) {
			return page{}, fmt.Errorf("results[%d].date %q", i, r.Date)
		}
		d, err := domain.ParseDate(r.Date[:len(time.DateOnly)])
		if err != nil {
			return page{}, fmt.Errorf("results[%d].date: %w", i, err)
		}
		p.observations = append(p.observations, domain.DailyObservation{Date: d, Metric: metric, Value: r.Value})
	}
	return p, nil
}
