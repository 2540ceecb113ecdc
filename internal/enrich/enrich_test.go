package enrich

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ademuri/streaming-stats/internal/store"
)

func createTestDb(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "streaming.db"))
	if err != nil {
		t.Fatalf("store.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeSource serves ids of the form t<n>, each on album al<n%3> by artist ar<n%2>.
type fakeSource struct {
	trackBatches  []int
	albumBatches  []int
	artistBatches []int
	// failures makes the next calls to Tracks fail with the given errors.
	failures []error
}

func (f *fakeSource) Tracks(ctx context.Context, ids []string) ([]store.Track, error) {
	f.trackBatches = append(f.trackBatches, len(ids))
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return nil, err
	}
	var tracks []store.Track
	for _, id := range ids {
		var n int
		fmt.Sscanf(id, "t%d", &n)
		artist := fmt.Sprintf("ar%d", n%2)
		tracks = append(tracks, store.Track{
			ID:        id,
			Name:      "Track " + id,
			AlbumID:   fmt.Sprintf("al%d", n%3),
			ArtistID:  artist,
			ArtistIDs: []string{artist},
		})
	}
	return tracks, nil
}

func (f *fakeSource) Albums(ctx context.Context, ids []string) ([]store.Album, error) {
	f.albumBatches = append(f.albumBatches, len(ids))
	var albums []store.Album
	for _, id := range ids {
		albums = append(albums, store.Album{ID: id, Name: "Album " + id, ReleaseYear: 2001})
	}
	return albums, nil
}

func (f *fakeSource) Artists(ctx context.Context, ids []string) ([]store.Artist, error) {
	f.artistBatches = append(f.artistBatches, len(ids))
	var artists []store.Artist
	for _, id := range ids {
		artists = append(artists, store.Artist{ID: id, Name: "Artist " + id, Genres: []string{"pop"}})
	}
	return artists, nil
}

type fakeFacts struct {
	calls []string
	fail  map[string]error
}

func (f *fakeFacts) ArtistFacts(ctx context.Context, id string) (store.ArtistFacts, error) {
	f.calls = append(f.calls, id)
	if err := f.fail[id]; err != nil {
		return store.ArtistFacts{}, err
	}
	return store.ArtistFacts{ArtistID: id, EntityID: "Q" + id, Genres: []string{"indie"}}, nil
}

func newTestEnricher(db *store.Store, source MetadataSource, facts FactSource) *Enricher {
	e := New(db, source, facts, zap.NewNop())
	e.CatalogLimiter = rate.NewLimiter(rate.Inf, 1)
	e.FactsLimiter = rate.NewLimiter(rate.Inf, 1)
	e.RetryDelay = 0
	e.Quiet = true
	return e
}

func trackIDs(n int) []string {
	var ids []string
	for i := 0; i < n; i++ {
		ids = append(ids, fmt.Sprintf("t%d", i))
	}
	return ids
}

func TestRun(t *testing.T) {
	db := createTestDb(t)
	source := &fakeSource{}
	facts := &fakeFacts{}
	e := newTestEnricher(db, source, facts)

	report, err := e.Run(context.Background(), trackIDs(120))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := Report{Tracks: 120, Artists: 2, Albums: 3, Facts: 2}
	if report != want {
		t.Errorf("Run report = %+v, want %+v", report, want)
	}
	if !reflect.DeepEqual(source.trackBatches, []int{50, 50, 20}) {
		t.Errorf("track batches = %v, want [50 50 20]", source.trackBatches)
	}
	if !reflect.DeepEqual(source.artistBatches, []int{2}) || !reflect.DeepEqual(source.albumBatches, []int{3}) {
		t.Errorf("artist batches = %v, album batches = %v", source.artistBatches, source.albumBatches)
	}
	if !reflect.DeepEqual(facts.calls, []string{"ar0", "ar1"}) {
		t.Errorf("fact lookups = %v", facts.calls)
	}

	// Everything is cached now.
	report, err = e.Run(context.Background(), trackIDs(120))
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if report != (Report{}) {
		t.Errorf("second Run report = %+v, want nothing fetched", report)
	}
	if len(source.trackBatches) != 3 || len(facts.calls) != 2 {
		t.Errorf("second Run fetched again: tracks %v, facts %v", source.trackBatches, facts.calls)
	}
}

func TestRunRetriesTransientErrors(t *testing.T) {
	db := createTestDb(t)
	source := &fakeSource{failures: []error{&StatusError{Code: 502}}}
	e := newTestEnricher(db, source, nil)

	report, err := e.Run(context.Background(), trackIDs(3))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Tracks != 3 || report.FailedBatches != 0 {
		t.Errorf("Run report = %+v", report)
	}
	if !reflect.DeepEqual(source.trackBatches, []int{3, 3}) {
		t.Errorf("track batches = %v, want one retry", source.trackBatches)
	}
}

func TestRunSkipsFailedBatches(t *testing.T) {
	db := createTestDb(t)
	source := &fakeSource{failures: []error{errors.New("malformed response")}}
	e := newTestEnricher(db, source, nil)

	report, err := e.Run(context.Background(), trackIDs(60))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Tracks != 10 || report.FailedBatches != 1 {
		t.Errorf("Run report = %+v, want 10 tracks and 1 failed batch", report)
	}

	missing, err := db.MissingTrackIDs(trackIDs(60))
	if err != nil {
		t.Fatalf("MissingTrackIDs error: %v", err)
	}
	if len(missing) != 50 {
		t.Errorf("%d tracks missing, want the failed batch of 50", len(missing))
	}
}

func TestRunStopsWhenUnauthorized(t *testing.T) {
	db := createTestDb(t)
	source := &fakeSource{failures: []error{ErrUnauthorized}}
	e := newTestEnricher(db, source, nil)

	_, err := e.Run(context.Background(), trackIDs(60))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Run error = %v, want ErrUnauthorized", err)
	}
	if len(source.trackBatches) != 1 {
		t.Errorf("track batches = %v, want to stop after the first", source.trackBatches)
	}
}

func TestRunKeepsArtistsWithFailedFacts(t *testing.T) {
	db := createTestDb(t)
	facts := &fakeFacts{fail: map[string]error{"ar1": errors.New("timeout")}}
	e := newTestEnricher(db, &fakeSource{}, facts)

	report, err := e.Run(context.Background(), trackIDs(2))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Facts != 1 {
		t.Errorf("facts = %d, want 1", report.Facts)
	}
	pending, err := db.ArtistsWithoutFacts()
	if err != nil {
		t.Fatalf("ArtistsWithoutFacts error: %v", err)
	}
	if !reflect.DeepEqual(pending, []string{"ar1"}) {
		t.Errorf("ArtistsWithoutFacts = %v, want [ar1]", pending)
	}
}

func TestRunCancelled(t *testing.T) {
	db := createTestDb(t)
	e := newTestEnricher(db, &fakeSource{}, nil)
	e.CatalogLimiter = rate.NewLimiter(rate.Every(1), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx, trackIDs(1)); err == nil {
		t.Errorf("Run with cancelled context expected error")
	}
}

func TestJoin(t *testing.T) {
	db := createTestDb(t)
	if err := db.SaveTracks([]store.Track{
		{ID: "t1", Explicit: true, Popularity: 70, AlbumID: "al1", ArtistID: "ar1", ArtistIDs: []string{"ar1"}},
		{ID: "t2", AlbumID: "missing", ArtistID: "ar2", ArtistIDs: []string{"ar2"}},
	}); err != nil {
		t.Fatalf("SaveTracks error: %v", err)
	}
	if err := db.SaveAlbums([]store.Album{{ID: "al1", ReleaseYear: 1999}}); err != nil {
		t.Fatalf("SaveAlbums error: %v", err)
	}
	if err := db.SaveArtists([]store.Artist{{ID: "ar1", Genres: []string{"rock", "indie"}}}); err != nil {
		t.Fatalf("SaveArtists error: %v", err)
	}
	if err := db.SaveArtistFacts([]store.ArtistFacts{{ArtistID: "ar1", Genres: []string{"indie", "art rock"}}}); err != nil {
		t.Fatalf("SaveArtistFacts error: %v", err)
	}

	joined, err := Join(db)
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if joined.Len() != 2 {
		t.Errorf("Len() = %d, want 2", joined.Len())
	}

	info, ok := joined.Track("t1")
	if !ok {
		t.Fatalf("Track(t1) not found")
	}
	if !info.Explicit || info.Popularity != 70 || info.ReleaseYear != 1999 {
		t.Errorf("Track(t1) = %+v", info)
	}
	if want := []string{"art rock", "indie", "rock"}; !reflect.DeepEqual(info.Genres, want) {
		t.Errorf("genres = %v, want %v", info.Genres, want)
	}

	info, ok = joined.Track("t2")
	if !ok || info.ReleaseYear != 0 || info.Genres != nil {
		t.Errorf("Track(t2) = %+v, %v", info, ok)
	}
	if _, ok := joined.Track("t3"); ok {
		t.Errorf("Track(t3) found")
	}
}
