package models

// PlayRequest is the POST body for /api/player/play. It accepts the raw
// directory record shape; normalization happens at the boundary.
type PlayRequest struct {
	Station StationRecord `json:"station"`
}

// PlayingRequest is the POST body for /api/player/playing.
type PlayingRequest struct {
	Playing *bool `json:"playing"`
}

// VolumeRequest is the POST body for /api/player/volume.
type VolumeRequest struct {
	Volume *float64 `json:"volume"`
}

// MuteRequest is the POST body for /api/player/mute.
type MuteRequest struct {
	Muted *bool `json:"muted"`
}

// FavoriteRequest is the POST body for /api/favorites.
type FavoriteRequest struct {
	Station StationRecord `json:"station"`
}

// Info is the daemon information response.
type Info struct {
	Version string `json:"version"`
	Engine  string `json:"engine"`
}
