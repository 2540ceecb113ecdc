package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/zmb3/spotify/v2"

	"github.com/ademuri/streaming-stats/internal/store"
)

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"1969-09-26", 1969},
		{"1969-09", 1969},
		{"1969", 1969},
		{"1900-01-01", 0},
		{"0000", 0},
		{"", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := ReleaseYear(tt.date); got != tt.want {
			t.Errorf("ReleaseYear(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func newTestCatalog(t *testing.T, handler http.HandlerFunc) *SpotifyCatalog {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewSpotifyCatalog(server.Client(), spotify.WithBaseURL(server.URL+"/"))
}

func TestSpotifyCatalogTracks(t *testing.T) {
	var gotIDs string
	catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tracks" {
			t.Errorf("request path = %q, want /tracks", r.URL.Path)
		}
		gotIDs = r.URL.Query().Get("ids")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tracks": [
			{"id": "t1", "name": "Come Together", "duration_ms": 259946, "explicit": false,
			 "popularity": 77, "track_number": 1, "disc_number": 1,
			 "album": {"id": "al1", "name": "Abbey Road"},
			 "artists": [{"id": "ar1", "name": "The Beatles"}, {"id": "ar2", "name": "Guest"}]},
			null
		]}`))
	})

	tracks, err := catalog.Tracks(context.Background(), []string{"t1", "bogus"})
	if err != nil {
		t.Fatalf("Tracks error: %v", err)
	}
	if gotIDs != "t1,bogus" {
		t.Errorf("ids = %q, want t1,bogus", gotIDs)
	}
	want := []store.Track{{
		ID:          "t1",
		Name:        "Come Together",
		DurationMs:  259946,
		Popularity:  77,
		TrackNumber: 1,
		DiscNumber:  1,
		AlbumID:     "al1",
		ArtistID:    "ar1",
		ArtistIDs:   []string{"ar1", "ar2"},
	}}
	if !reflect.DeepEqual(tracks, want) {
		t.Errorf("Tracks = %+v, want %+v", tracks, want)
	}
}

func TestSpotifyCatalogAlbumsAndArtists(t *testing.T) {
	catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/albums":
			w.Write([]byte(`{"albums": [
				{"id": "al1", "name": "Abbey Road", "album_type": "album", "release_date": "1969-09-26",
				 "popularity": 80, "artists": [{"id": "ar1"}],
				 "tracks": {"total": 2, "items": [{"id": "t1"}, {"id": "t2"}]}},
				{"id": "al2", "name": "Old", "album_type": "single", "release_date": "1900-01-01",
				 "tracks": {"total": 1, "items": [{"id": "t3"}]}}
			]}`))
		case "/artists":
			w.Write([]byte(`{"artists": [
				{"id": "ar1", "name": "The Beatles", "popularity": 90, "genres": ["rock", "british invasion"],
				 "followers": {"total": 1000}}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})

	albums, err := catalog.Albums(context.Background(), []string{"al1", "al2"})
	if err != nil {
		t.Fatalf("Albums error: %v", err)
	}
	wantAlbums := []store.Album{
		{ID: "al1", Name: "Abbey Road", AlbumType: "album", TotalTracks: 2, ReleaseYear: 1969, Popularity: 80,
			ArtistIDs: []string{"ar1"}, TrackIDs: []string{"t1", "t2"}},
		{ID: "al2", Name: "Old", AlbumType: "single", TotalTracks: 1, TrackIDs: []string{"t3"}},
	}
	if !reflect.DeepEqual(albums, wantAlbums) {
		t.Errorf("Albums = %+v, want %+v", albums, wantAlbums)
	}

	artists, err := catalog.Artists(context.Background(), []string{"ar1"})
	if err != nil {
		t.Fatalf("Artists error: %v", err)
	}
	wantArtists := []store.Artist{
		{ID: "ar1", Name: "The Beatles", Followers: 1000, Genres: []string{"rock", "british invasion"}, Popularity: 90},
	}
	if !reflect.DeepEqual(artists, wantArtists) {
		t.Errorf("Artists = %+v, want %+v", artists, wantArtists)
	}
}

func TestSpotifyCatalogUnauthorized(t *testing.T) {
	catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"status": 401, "message": "The access token expired"}}`))
	})

	_, err := catalog.Tracks(context.Background(), []string{"t1"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Tracks error = %v, want ErrUnauthorized", err)
	}
}

func TestTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{spotify.Error{Status: 503, Message: "unavailable"}, true},
		{spotify.Error{Status: 404, Message: "not found"}, false},
		{&StatusError{Code: 500}, true},
		{&StatusError{Code: 429}, true},
		{&StatusError{Code: 400}, false},
		{ErrUnauthorized, false},
		{errors.New("other"), false},
	}
	for _, tt := range tests {
		if got := transient(tt.err); got != tt.want {
			t.Errorf("transient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
