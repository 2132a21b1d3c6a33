// Package live is the client for the optional hydrology backend API.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/provider/resilience"
)

const (
	// UpstreamName identifies the backend in the resilience registry.
	UpstreamName = "live-backend"

	// DefaultSeriesLimit bounds on-demand series fetches.
	DefaultSeriesLimit = 50000
)

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the API origin, e.g. http://127.0.0.1:8000 (required).
	BaseURL string

	// HTTPClient is the resilient client to use (optional).
	HTTPClient *resilience.Client

	// Clock supplies cache-buster timestamps (optional).
	Clock clockwork.Clock

	// SeriesLimit caps on-demand series length (default: 50000).
	SeriesLimit int

	Logger zerolog.Logger
}

// Client talks to the backend API.
type Client struct {
	baseURL     string
	httpClient  *resilience.Client
	clock       clockwork.Clock
	seriesLimit int
	logger      zerolog.Logger
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(UpstreamName))
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	limit := cfg.SeriesLimit
	if limit <= 0 {
		limit = DefaultSeriesLimit
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  httpClient,
		clock:       clock,
		seriesLimit: limit,
		logger:      cfg.Logger,
	}
}

// BaseURL returns the API origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stations fetches the discharge station catalog. A millisecond cache buster keeps
// intermediaries from serving a stale catalog.
func (c *Client) Stations(ctx context.Context) ([]hydro.Station, error) {
	u := fmt.Sprintf("%s/api/discharge/stations?_=%d", c.baseURL, c.clock.Now().UnixMilli())

	body, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching stations: %w", err)
	}

	stations, err := hydro.DecodeStationCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decoding stations: %w", err)
	}
	return stations, nil
}

// StationSeries fetches the full-resolution discharge series for one station.
func (c *Client) StationSeries(ctx context.Context, id string) (hydro.Series, error) {
	u := fmt.Sprintf("%s/api/discharge/station/%s?limit=%s",
		c.baseURL, url.PathEscape(id), strconv.Itoa(c.seriesLimit))

	body, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching series for %s: %w", id, err)
	}

	series, err := hydro.DecodeStationSeries(body)
	if err != nil {
		return nil, fmt.Errorf("decoding series for %s: %w", id, err)
	}

	c.logger.Debug().
		Str("station_id", id).
		Int("points", len(series)).
		Msg("fetched on-demand series")

	return series, nil
}

type featureCollection struct {
	Features []struct {
		Geometry *geojson.Geometry `json:"geometry"`
	} `json:"features"`
}

// Watershed fetches the drainage-basin geometries. Features without a decodable
// geometry are dropped.
func (c *Client) Watershed(ctx context.Context) ([]geom.T, error) {
	body, err := c.httpClient.Get(ctx, c.baseURL+"/api/watershed")
	if err != nil {
		return nil, fmt.Errorf("fetching watershed: %w", err)
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decoding watershed: %w", err)
	}

	geoms := make([]geom.T, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		g, err := f.Geometry.Decode()
		if err != nil {
			c.logger.Debug().Err(err).Msg("skipping undecodable watershed feature")
			continue
		}
		geoms = append(geoms, g)
	}
	return geoms, nil
}

type demBounds struct {
	South *float64 `json:"south"`
	West  *float64 `json:"west"`
	North *float64 `json:"north"`
	East  *float64 `json:"east"`
}

// DEMBounds fetches the placement of the elevation raster as lon/lat bounds.
func (c *Client) DEMBounds(ctx context.Context) (*geom.Bounds, error) {
	body, err := c.httpClient.Get(ctx, c.baseURL+"/api/dem/bounds")
	if err != nil {
		return nil, fmt.Errorf("fetching dem bounds: %w", err)
	}

	var b demBounds
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decoding dem bounds: %w", err)
	}
	if b.South == nil || b.West == nil || b.North == nil || b.East == nil {
		return nil, fmt.Errorf("dem bounds: %w", hydro.ErrMalformed)
	}

	return geom.NewBounds(geom.XY).Set(*b.West, *b.South, *b.East, *b.North), nil
}

// DEMImageURL is the address of the elevation raster.
func (c *Client) DEMImageURL() string {
	return c.baseURL + "/api/dem/image"
}
