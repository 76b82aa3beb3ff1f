// Package models defines the data structures shared across the tunedeck
// daemon. JSON field names match the web client's station records so the
// directory proxy and play endpoint stay wire compatible.
package models

import "strings"

// PlaceholderFavicon is substituted when a directory record carries no icon.
const PlaceholderFavicon = "https://placehold.co/64x64.png"

// Station is the canonical, normalized radio station record. It is immutable
// once constructed; the playback core never sees any other station shape.
type Station struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StreamURL   string `json:"streamUrl"`
	ResolvedURL string `json:"resolvedUrl,omitempty"` // authoritative when set
	Genre       string `json:"genre,omitempty"`
	Country     string `json:"country,omitempty"`
	FaviconURL  string `json:"faviconUrl,omitempty"`
}

// PlaybackURL returns the address the audio engine should load:
// the resolved URL when present, the primary stream URL otherwise.
func (s Station) PlaybackURL() string {
	if s.ResolvedURL != "" {
		return s.ResolvedURL
	}
	return s.StreamURL
}

// IsPlayable reports whether the station has a resolvable stream address.
// Unplayable stations are rejected at the PlayStation boundary instead of
// being attempted and failing.
func (s Station) IsPlayable() bool {
	return s.PlaybackURL() != ""
}

// StationRecord is the raw shape returned by radio-directory APIs. The
// directory has grown several overlapping field conventions over time
// (StreamURL vs URL/URLResolved); Normalize collapses them all into one
// canonical Station before anything reaches the playback core.
type StationRecord struct {
	ID          string  `json:"id,omitempty"`
	StationUUID string  `json:"stationuuid,omitempty"`
	Name        string  `json:"name"`
	StreamURL   string  `json:"streamUrl,omitempty"`
	URL         string  `json:"url,omitempty"`
	URLResolved string  `json:"url_resolved,omitempty"`
	Tags        string  `json:"tags,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Country     string  `json:"country,omitempty"`
	Favicon     string  `json:"favicon,omitempty"`
	FaviconURL  string  `json:"faviconUrl,omitempty"`
	ClickCount  int     `json:"clickcount,omitempty"`
	ClickTrend  int     `json:"clicktrend,omitempty"`
	Bitrate     int     `json:"bitrate,omitempty"`
	Votes       int     `json:"votes,omitempty"`
	Codec       string  `json:"codec,omitempty"`
	GeoLat      float64 `json:"geo_lat,omitempty"`
	GeoLong     float64 `json:"geo_long,omitempty"`
}

// Normalize converts a raw directory record into the canonical Station.
func (r StationRecord) Normalize() Station {
	s := Station{
		ID:          firstNonEmpty(r.ID, r.StationUUID),
		Name:        r.Name,
		StreamURL:   firstNonEmpty(r.StreamURL, r.URL),
		ResolvedURL: r.URLResolved,
		Genre:       firstNonEmpty(r.Genre, firstTag(r.Tags)),
		Country:     r.Country,
		FaviconURL:  firstNonEmpty(r.FaviconURL, r.Favicon, PlaceholderFavicon),
	}
	return s
}

// firstTag derives a single genre label from a comma separated tag list.
func firstTag(tags string) string {
	first, _, _ := strings.Cut(tags, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return "Unknown"
	}
	return first
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
