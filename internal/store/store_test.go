package store

import (
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"
)

func createTestDb(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "streaming.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%s) error: %v", dbPath, err)
	}

	return store
}

func TestNewIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "streaming.db")
	for i := 0; i < 2; i++ {
		s, err := New(dbPath)
		if err != nil {
			t.Fatalf("New(%s) #%d error: %v", dbPath, i, err)
		}
		s.Close()
	}
}

func TestEnsureSchemaAddsFactColumns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	// An Artist table from before facts were cached.
	if _, err := db.Exec(`CREATE TABLE Artist (id TEXT PRIMARY KEY, name TEXT, followers INTEGER,
		genres TEXT, popularity INTEGER, fetched DATETIME)`); err != nil {
		t.Fatalf("creating old table: %v", err)
	}
	db.Close()

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%s) error: %v", dbPath, err)
	}
	defer s.Close()

	exists, err := columnExists(s.db, "Artist", "facts_fetched")
	if err != nil {
		t.Fatalf("columnExists: %v", err)
	}
	if !exists {
		t.Errorf("Artist.facts_fetched was not added")
	}
}

func TestTracks(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	tracks := []Track{
		{
			ID:         "t1",
			Name:       "Come Together",
			DurationMs: 259946,
			Explicit:   true,
			Popularity: 77,
			AlbumID:    "a1",
			ArtistID:   "ar1",
			ArtistIDs:  []string{"ar1", "ar2"},
		},
	}
	if err := s.SaveTracks(tracks); err != nil {
		t.Fatalf("SaveTracks failed: %v", err)
	}
	// Replacing is idempotent.
	if err := s.SaveTracks(tracks); err != nil {
		t.Fatalf("SaveTracks (repeat) failed: %v", err)
	}

	got, err := s.Tracks()
	if err != nil {
		t.Fatalf("Tracks failed: %v", err)
	}
	if len(got) != 1 || !reflect.DeepEqual(got["t1"], tracks[0]) {
		t.Errorf("Tracks() = %+v, want %+v", got, tracks[0])
	}

	missing, err := s.MissingTrackIDs([]string{"t2", "t1", "", "t2", "t3"})
	if err != nil {
		t.Fatalf("MissingTrackIDs failed: %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"t2", "t3"}) {
		t.Errorf("MissingTrackIDs = %v, want [t2 t3]", missing)
	}
}

func TestAlbums(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	albums := []Album{
		{ID: "a1", Name: "Abbey Road", AlbumType: "album", TotalTracks: 17, ReleaseYear: 1969, Popularity: 80,
			ArtistIDs: []string{"ar1"}, TrackIDs: []string{"t1", "t2"}},
		{ID: "a2", Name: "Unknown", AlbumType: "single", TotalTracks: 1},
	}
	if err := s.SaveAlbums(albums); err != nil {
		t.Fatalf("SaveAlbums failed: %v", err)
	}

	got, err := s.Albums()
	if err != nil {
		t.Fatalf("Albums failed: %v", err)
	}
	for _, want := range albums {
		if !reflect.DeepEqual(got[want.ID], want) {
			t.Errorf("Albums()[%s] = %+v, want %+v", want.ID, got[want.ID], want)
		}
	}

	missing, err := s.MissingAlbumIDs([]string{"a1", "a3"})
	if err != nil {
		t.Fatalf("MissingAlbumIDs failed: %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"a3"}) {
		t.Errorf("MissingAlbumIDs = %v, want [a3]", missing)
	}
}

func TestArtistsAndFacts(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	if err := s.SaveArtists([]Artist{
		{ID: "ar1", Name: "The Beatles", Followers: 100, Genres: []string{"rock"}, Popularity: 90},
		{ID: "ar2", Name: "Nobody", Popularity: 1},
	}); err != nil {
		t.Fatalf("SaveArtists failed: %v", err)
	}

	pending, err := s.ArtistsWithoutFacts()
	if err != nil {
		t.Fatalf("ArtistsWithoutFacts failed: %v", err)
	}
	if !reflect.DeepEqual(pending, []string{"ar1", "ar2"}) {
		t.Errorf("ArtistsWithoutFacts = %v, want [ar1 ar2]", pending)
	}

	band := true
	if err := s.SaveArtistFacts([]ArtistFacts{
		{ArtistID: "ar1", EntityID: "Q1299", IsBand: &band, Country: "United Kingdom", Genres: []string{"pop rock"}},
		{ArtistID: "ar2"},
	}); err != nil {
		t.Fatalf("SaveArtistFacts failed: %v", err)
	}
	if err := s.SaveArtistFacts([]ArtistFacts{{ArtistID: "missing"}}); err == nil {
		t.Errorf("SaveArtistFacts for unknown artist expected error")
	}

	// Refreshing catalog data keeps the facts.
	if err := s.SaveArtists([]Artist{{ID: "ar1", Name: "The Beatles", Followers: 200, Genres: []string{"rock"}}}); err != nil {
		t.Fatalf("SaveArtists (refresh) failed: %v", err)
	}

	artists, err := s.Artists()
	if err != nil {
		t.Fatalf("Artists failed: %v", err)
	}
	beatles := artists["ar1"]
	if beatles.Followers != 200 || !beatles.HasFacts || beatles.Facts.EntityID != "Q1299" {
		t.Errorf("Artists()[ar1] = %+v", beatles)
	}
	if beatles.Facts.IsBand == nil || !*beatles.Facts.IsBand {
		t.Errorf("IsBand = %v, want true", beatles.Facts.IsBand)
	}
	if !reflect.DeepEqual(beatles.Facts.Genres, []string{"pop rock"}) {
		t.Errorf("fact genres = %v", beatles.Facts.Genres)
	}
	if nobody := artists["ar2"]; !nobody.HasFacts || nobody.Facts.IsBand != nil {
		t.Errorf("Artists()[ar2] = %+v", nobody)
	}

	pending, err = s.ArtistsWithoutFacts()
	if err != nil {
		t.Fatalf("ArtistsWithoutFacts failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("ArtistsWithoutFacts = %v, want none", pending)
	}

	missing, err := s.MissingArtistIDs([]string{"ar1", "ar3"})
	if err != nil {
		t.Fatalf("MissingArtistIDs failed: %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"ar3"}) {
		t.Errorf("MissingArtistIDs = %v, want [ar3]", missing)
	}
}

func TestResults(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	body, err := s.Result("single_values")
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if body != nil {
		t.Errorf("Result of missing table = %q, want nil", body)
	}

	if err := s.SaveResult("single_values", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	if err := s.SaveResult("single_values", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("SaveResult (replace) failed: %v", err)
	}
	body, err = s.Result("single_values")
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if string(body) != `{"a":2}` {
		t.Errorf("Result = %s, want {\"a\":2}", body)
	}
}
