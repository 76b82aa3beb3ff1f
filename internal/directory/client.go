// Package directory is the client for the public radio-browser station
// directory. It returns raw directory records; normalization into canonical
// stations happens where a record crosses into the playback core.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/tunedeck/tunedeck-go/internal/models"
)

// DefaultBaseURL is the radio-browser JSON API endpoint.
const DefaultBaseURL = "https://de1.api.radio-browser.info/json"

const (
	defaultLimit = 100
	userAgent    = "tunedeck/0.1"
)

// TopTag is one entry of the directory's tag ranking.
type TopTag struct {
	Name         string `json:"name"`
	StationCount int    `json:"stationcount"`
}

// SearchParams narrows a station search. Zero values are omitted from the
// request.
type SearchParams struct {
	Name    string
	Tag     string
	Country string
	Limit   int
}

// Client queries the station directory over HTTP. The directory asks
// clients to identify themselves and to go easy on request volume, so every
// call passes a User-Agent and waits on a shared rate limiter.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a directory client. An empty baseURL selects the public
// directory.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 5),
	}
}

// Search finds stations matching the given filters. Broken stations are
// excluded upstream.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]models.StationRecord, error) {
	q := url.Values{}
	if params.Name != "" {
		q.Set("name", params.Name)
	}
	if params.Tag != "" {
		q.Set("tag", params.Tag)
	}
	if params.Country != "" {
		q.Set("country", params.Country)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("hidebroken", "true")

	var stations []models.StationRecord
	if err := c.get(ctx, "/stations/search?"+q.Encode(), &stations); err != nil {
		return nil, fmt.Errorf("station search: %w", err)
	}
	return stations, nil
}

// Top returns the directory's most-clicked stations.
func (c *Client) Top(ctx context.Context, limit int) ([]models.StationRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	var stations []models.StationRecord
	if err := c.get(ctx, "/stations/topclick/"+strconv.Itoa(limit), &stations); err != nil {
		return nil, fmt.Errorf("top stations: %w", err)
	}
	return stations, nil
}

// TopTags returns the most-used station tags, largest first.
func (c *Client) TopTags(ctx context.Context, limit int) ([]TopTag, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	q := url.Values{}
	q.Set("order", "stationcount")
	q.Set("reverse", "true")
	q.Set("limit", strconv.Itoa(limit))

	var tags []TopTag
	if err := c.get(ctx, "/tags?"+q.Encode(), &tags); err != nil {
		return nil, fmt.Errorf("top tags: %w", err)
	}
	return tags, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("directory returned %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SortByClickTrend orders stations by recent click momentum, hottest first.
func SortByClickTrend(stations []models.StationRecord) {
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].ClickTrend > stations[j].ClickTrend
	})
}

// SortByListeners orders stations by total click count, most first.
func SortByListeners(stations []models.StationRecord) {
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].ClickCount > stations[j].ClickCount
	})
}

// SortByBitrate orders stations by stream bitrate, highest first.
func SortByBitrate(stations []models.StationRecord) {
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].Bitrate > stations[j].Bitrate
	})
}
