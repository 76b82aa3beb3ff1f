package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/tunedeck/tunedeck-go/internal/models"
)

// recentLimit caps how many recently played stations are kept.
const recentLimit = 20

// Repo provides the queries over the history database.
type Repo struct {
	db *sql.DB
}

// NewRepo wraps an open history database.
func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// TouchRecent records that a station played now. Replaying a known station
// moves it to the front; the list is trimmed to the newest entries.
func (r *Repo) TouchRecent(ctx context.Context, st models.Station) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recents(station_id, name, stream_url, resolved_url, genre, country, favicon_url, played_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(station_id) DO UPDATE SET
		  name=excluded.name,
		  stream_url=excluded.stream_url,
		  resolved_url=excluded.resolved_url,
		  genre=excluded.genre,
		  country=excluded.country,
		  favicon_url=excluded.favicon_url,
		  played_at=excluded.played_at`,
		st.ID, st.Name, st.StreamURL, st.ResolvedURL, st.Genre, st.Country, st.FaviconURL,
		time.Now().Unix(),
	)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		DELETE FROM recents WHERE station_id NOT IN (
		  SELECT station_id FROM recents ORDER BY played_at DESC, station_id LIMIT ?
		)`, recentLimit)
	return err
}

// Recents returns recently played stations, newest first.
func (r *Repo) Recents(ctx context.Context) ([]models.Station, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT station_id, name, stream_url, resolved_url, genre, country, favicon_url
		FROM recents ORDER BY played_at DESC, station_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStations(rows)
}

// AddFavorite saves a station to the favorites list. Saving an existing
// favorite refreshes its record.
func (r *Repo) AddFavorite(ctx context.Context, st models.Station) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites(station_id, name, stream_url, resolved_url, genre, country, favicon_url, added_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(station_id) DO UPDATE SET
		  name=excluded.name,
		  stream_url=excluded.stream_url,
		  resolved_url=excluded.resolved_url,
		  genre=excluded.genre,
		  country=excluded.country,
		  favicon_url=excluded.favicon_url`,
		st.ID, st.Name, st.StreamURL, st.ResolvedURL, st.Genre, st.Country, st.FaviconURL,
		time.Now().Unix(),
	)
	return err
}

// RemoveFavorite deletes a favorite by station ID. It reports whether a row
// was actually removed.
func (r *Repo) RemoveFavorite(ctx context.Context, stationID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE station_id=?`, stationID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Favorites returns all favorite stations, most recently added first.
func (r *Repo) Favorites(ctx context.Context) ([]models.Station, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT station_id, name, stream_url, resolved_url, genre, country, favicon_url
		FROM favorites ORDER BY added_at DESC, station_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStations(rows)
}

func scanStations(rows *sql.Rows) ([]models.Station, error) {
	stations := []models.Station{}
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.StreamURL, &st.ResolvedURL,
			&st.Genre, &st.Country, &st.FaviconURL); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}
