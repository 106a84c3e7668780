// Seeds the song catalog from a JSON track list: each entry is resolved
// against the Deezer search API for its preview URL and canonical
// spelling, upserted into songs, and linked to the target playlist.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tcregan1/TempoTrivia/internal/dbconfig"
	"github.com/tcregan1/TempoTrivia/internal/songs"
)

// TrackIn mirrors the JSON track list structure.
type TrackIn struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

func main() {
	file := flag.String("file", "tracks.json", "path to the JSON track list")
	playlist := flag.String("playlist", "Normal Mode", "target playlist name")
	description := flag.String("description", "Imported track list", "playlist description when created")
	flag.Parse()

	godotenv.Load()

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var tracks []TrackIn
	if err := json.Unmarshal(data, &tracks); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	ctx := context.Background()
	playlistID, err := getOrCreatePlaylist(ctx, pool, *playlist, *description)
	if err != nil {
		fmt.Fprintf(os.Stderr, "playlist %q: %v\n", *playlist, err)
		os.Exit(1)
	}

	resolver := songs.NewPreviewClient()

	var (
		total     = len(tracks)
		added     int
		linked    int
		unmatched int
		errs      int
	)
	for _, tr := range tracks {
		match, err := resolver.SearchTrack(ctx, tr.Title, tr.Artist)
		if errors.Is(err, songs.ErrNoMatch) {
			fmt.Fprintf(os.Stderr, "no match for %q by %q\n", tr.Title, tr.Artist)
			unmatched++
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error resolving %q: %v\n", tr.Title, err)
			errs++
			continue
		}

		songID, isNew, err := upsertSong(ctx, pool, match)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error upserting %q: %v\n", match.Title, err)
			errs++
			continue
		}
		if isNew {
			added++
		}

		cmdTag, err := pool.Exec(ctx, `
			INSERT INTO playlist_songs (playlist_id, song_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			playlistID, songID,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error linking %q: %v\n", match.Title, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			linked++
		}
	}

	fmt.Printf(
		"Song seed complete: %d total, %d new songs, %d linked to %q, %d unmatched, %d errors\n",
		total, added, linked, *playlist, unmatched, errs,
	)
}

func getOrCreatePlaylist(ctx context.Context, pool *pgxpool.Pool, name, description string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `SELECT id FROM playlists WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("look up playlist: %w", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO playlists (name, description)
		VALUES ($1, $2)
		RETURNING id`,
		name, description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create playlist: %w", err)
	}
	return id, nil
}

// upsertSong dedupes on case-insensitive title+artist, matching how the
// catalog is queried at game time.
func upsertSong(ctx context.Context, pool *pgxpool.Pool, match songs.TrackMatch) (int64, bool, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		SELECT id FROM songs
		WHERE lower(title) = lower($1) AND lower(artist) = lower($2)`,
		match.Title, match.Artist,
	).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("look up song: %w", err)
	}

	err = pool.QueryRow(ctx, `
		INSERT INTO songs (title, artist, preview_url, artist_image_url, deezer_track_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		match.Title, match.Artist, match.PreviewURL, match.ArtistImageURL, match.DeezerTrackID,
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("insert song: %w", err)
	}
	return id, true, nil
}
