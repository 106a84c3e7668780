package songs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrNoMatch means the search returned no usable track.
var ErrNoMatch = errors.New("no matching track")

// TrackMatch is a catalog candidate resolved from the Deezer search
// API: the canonical title/artist spelling plus the ids and URLs the
// game needs.
type TrackMatch struct {
	DeezerTrackID  int64
	Title          string
	Artist         string
	PreviewURL     string
	ArtistImageURL string
}

// SearchTrack resolves a title/artist pair to its best Deezer match,
// taking the first search result as the original ingest flow does.
func (c *PreviewClient) SearchTrack(ctx context.Context, title, artist string) (TrackMatch, error) {
	q := url.QueryEscape(fmt.Sprintf("%s %s", title, artist))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/search?q=%s", c.baseURL, q), nil)
	if err != nil {
		return TrackMatch{}, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return TrackMatch{}, fmt.Errorf("search %q: %w", title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TrackMatch{}, fmt.Errorf("search %q: unexpected status %d", title, resp.StatusCode)
	}

	var body struct {
		Data []struct {
			ID      int64  `json:"id"`
			Title   string `json:"title"`
			Preview string `json:"preview"`
			Artist  struct {
				Name       string `json:"name"`
				PictureBig string `json:"picture_big"`
			} `json:"artist"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return TrackMatch{}, fmt.Errorf("decode search response: %w", err)
	}
	if len(body.Data) == 0 {
		return TrackMatch{}, ErrNoMatch
	}

	best := body.Data[0]
	return TrackMatch{
		DeezerTrackID:  best.ID,
		Title:          best.Title,
		Artist:         best.Artist.Name,
		PreviewURL:     best.Preview,
		ArtistImageURL: best.Artist.PictureBig,
	}, nil
}
