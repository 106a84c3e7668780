// Package songs provides the track catalog backing the trivia game:
// playlists served as game modes, random song draws, and preview URL
// resolution.
package songs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoSongs means the playlist has no songs left outside the
// exclusion list.
var ErrNoSongs = errors.New("no songs available")

// Playlist is a named song pool offered to rooms as a game mode.
type Playlist struct {
	ID          int64
	Name        string
	Description string
}

// Song is one catalog track. PreviewURL may be empty when the preview
// has to be resolved at round time.
type Song struct {
	ID             int64
	Title          string
	Artist         string
	PreviewURL     string
	ArtistImageURL string
	DeezerTrackID  int64
}

// Repository reads the song catalog from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a catalog reader over the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPlaylists returns every playlist, ordered by name.
func (r *Repository) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM playlists
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	var out []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return out, nil
}

// RandomSongExcluding draws one random song from the named playlist,
// skipping already-played ids. Returns ErrNoSongs when the pool is
// exhausted.
func (r *Repository) RandomSongExcluding(ctx context.Context, playlist string, exclude []int64) (Song, error) {
	if exclude == nil {
		exclude = []int64{}
	}
	var s Song
	err := r.pool.QueryRow(ctx, `
		SELECT s.id, s.title, s.artist,
		       COALESCE(s.preview_url, ''),
		       COALESCE(s.artist_image_url, ''),
		       COALESCE(s.deezer_track_id, 0)
		FROM songs s
		JOIN playlist_songs ps ON ps.song_id = s.id
		JOIN playlists p ON p.id = ps.playlist_id
		WHERE p.name = $1
		  AND NOT (s.id = ANY($2))
		ORDER BY random()
		LIMIT 1`,
		playlist, exclude,
	).Scan(&s.ID, &s.Title, &s.Artist, &s.PreviewURL, &s.ArtistImageURL, &s.DeezerTrackID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Song{}, ErrNoSongs
	}
	if err != nil {
		return Song{}, fmt.Errorf("draw song from %q: %w", playlist, err)
	}
	return s, nil
}
