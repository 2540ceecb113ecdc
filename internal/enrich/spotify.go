package enrich

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/zmb3/spotify/v2"

	"github.com/ademuri/streaming-stats/internal/store"
)

// Maximum ids per catalog request.
const (
	TrackBatchSize  = 50
	AlbumBatchSize  = 20
	ArtistBatchSize = 50
)

// ErrUnauthorized means the catalog rejected the access token.
var ErrUnauthorized = errors.New("invalid or expired Spotify token, refresh it and try again")

// Spotify releases with no known date carry this placeholder.
const unknownReleaseDate = "1900-01-01"

// SpotifyCatalog fetches metadata from the Spotify Web API.
type SpotifyCatalog struct {
	client *spotify.Client
}

// NewSpotifyCatalog returns a catalog backed by an authenticated HTTP client.
// Rate-limited responses are retried by the client itself.
func NewSpotifyCatalog(httpClient *http.Client, opts ...spotify.ClientOption) *SpotifyCatalog {
	opts = append([]spotify.ClientOption{spotify.WithRetry(true)}, opts...)
	return &SpotifyCatalog{client: spotify.New(httpClient, opts...)}
}

func (c *SpotifyCatalog) Tracks(ctx context.Context, ids []string) ([]store.Track, error) {
	full, err := c.client.GetTracks(ctx, toIDs(ids))
	if err != nil {
		return nil, catalogError(err)
	}
	var tracks []store.Track
	for _, t := range full {
		if t == nil {
			continue
		}
		track := store.Track{
			ID:          string(t.ID),
			Name:        t.Name,
			DurationMs:  int(t.Duration),
			Explicit:    t.Explicit,
			Popularity:  int(t.Popularity),
			TrackNumber: int(t.TrackNumber),
			DiscNumber:  int(t.DiscNumber),
			AlbumID:     string(t.Album.ID),
		}
		for _, a := range t.Artists {
			track.ArtistIDs = append(track.ArtistIDs, string(a.ID))
		}
		if len(track.ArtistIDs) > 0 {
			track.ArtistID = track.ArtistIDs[0]
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (c *SpotifyCatalog) Albums(ctx context.Context, ids []string) ([]store.Album, error) {
	full, err := c.client.GetAlbums(ctx, toIDs(ids))
	if err != nil {
		return nil, catalogError(err)
	}
	var albums []store.Album
	for _, a := range full {
		if a == nil {
			continue
		}
		album := store.Album{
			ID:          string(a.ID),
			Name:        a.Name,
			AlbumType:   a.AlbumType,
			TotalTracks: int(a.Tracks.Total),
			ReleaseYear: ReleaseYear(a.ReleaseDate),
			Popularity:  int(a.Popularity),
		}
		for _, artist := range a.Artists {
			album.ArtistIDs = append(album.ArtistIDs, string(artist.ID))
		}
		for _, t := range a.Tracks.Tracks {
			album.TrackIDs = append(album.TrackIDs, string(t.ID))
		}
		albums = append(albums, album)
	}
	return albums, nil
}

func (c *SpotifyCatalog) Artists(ctx context.Context, ids []string) ([]store.Artist, error) {
	full, err := c.client.GetArtists(ctx, toIDs(ids)...)
	if err != nil {
		return nil, catalogError(err)
	}
	var artists []store.Artist
	for _, a := range full {
		if a == nil {
			continue
		}
		artists = append(artists, store.Artist{
			ID:         string(a.ID),
			Name:       a.Name,
			Followers:  int(a.Followers.Count),
			Genres:     a.Genres,
			Popularity: int(a.Popularity),
		})
	}
	return artists, nil
}

// ReleaseYear returns the year of a release date of any precision, or zero
// when the date is unknown.
func ReleaseYear(date string) int {
	if date == unknownReleaseDate || len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func catalogError(err error) error {
	var serr spotify.Error
	if errors.As(err, &serr) && serr.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return err
}

// transient reports whether a failed request is worth repeating.
func transient(err error) bool {
	var serr spotify.Error
	if errors.As(err, &serr) {
		return serr.Status/100 == 5
	}
	var herr *StatusError
	if errors.As(err, &herr) {
		return herr.Code/100 == 5 || herr.Code == http.StatusTooManyRequests
	}
	return false
}
