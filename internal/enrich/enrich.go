package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ademuri/streaming-stats/internal/store"
)

// MetadataSource fetches catalog metadata for batches of ids. Unknown ids
// are left out of the result.
type MetadataSource interface {
	Tracks(ctx context.Context, ids []string) ([]store.Track, error)
	Albums(ctx context.Context, ids []string) ([]store.Album, error)
	Artists(ctx context.Context, ids []string) ([]store.Artist, error)
}

// FactSource looks up knowledge-graph facts of one artist.
type FactSource interface {
	ArtistFacts(ctx context.Context, artistID string) (store.ArtistFacts, error)
}

const factsBatchSize = 50

// Enricher fills the metadata cache for the tracks of a listening history.
// Ids already cached are never fetched again.
type Enricher struct {
	db     *store.Store
	source MetadataSource
	facts  FactSource
	logger *zap.Logger

	CatalogLimiter *rate.Limiter
	FactsLimiter   *rate.Limiter
	Attempts       uint
	RetryDelay     time.Duration
	// Quiet hides the progress bars.
	Quiet bool
}

// Report counts what a run added to the cache.
type Report struct {
	Tracks        int
	Artists       int
	Albums        int
	Facts         int
	FailedBatches int
}

// New returns an Enricher. facts may be nil to skip the knowledge graph.
func New(db *store.Store, source MetadataSource, facts FactSource, logger *zap.Logger) *Enricher {
	return &Enricher{
		db:             db,
		source:         source,
		facts:          facts,
		logger:         logger,
		CatalogLimiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		FactsLimiter:   rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		Attempts:       3,
		RetryDelay:     time.Second,
	}
}

// Run fetches tracks, then their artists and facts, then their albums. A
// failed batch is logged and skipped; an invalid token stops the run.
func (e *Enricher) Run(ctx context.Context, trackIDs []string) (Report, error) {
	var report Report

	missing, err := e.db.MissingTrackIDs(trackIDs)
	if err != nil {
		return report, err
	}
	report.Tracks, err = fetchBatches(ctx, e, &report, "tracks", missing, TrackBatchSize, e.source.Tracks, e.db.SaveTracks)
	if err != nil {
		return report, err
	}

	cached, err := e.db.Tracks()
	if err != nil {
		return report, err
	}
	var albumIDs, artistIDs []string
	for _, id := range trackIDs {
		t, ok := cached[id]
		if !ok {
			continue
		}
		albumIDs = append(albumIDs, t.AlbumID)
		artistIDs = append(artistIDs, t.ArtistIDs...)
	}

	missing, err = e.db.MissingArtistIDs(artistIDs)
	if err != nil {
		return report, err
	}
	report.Artists, err = fetchBatches(ctx, e, &report, "artists", missing, ArtistBatchSize, e.source.Artists, e.db.SaveArtists)
	if err != nil {
		return report, err
	}

	if e.facts != nil {
		if report.Facts, err = e.fetchFacts(ctx); err != nil {
			return report, err
		}
	}

	missing, err = e.db.MissingAlbumIDs(albumIDs)
	if err != nil {
		return report, err
	}
	report.Albums, err = fetchBatches(ctx, e, &report, "albums", missing, AlbumBatchSize, e.source.Albums, e.db.SaveAlbums)
	if err != nil {
		return report, err
	}

	e.logger.Info("enrichment finished",
		zap.Int("tracks", report.Tracks),
		zap.Int("artists", report.Artists),
		zap.Int("albums", report.Albums),
		zap.Int("facts", report.Facts),
		zap.Int("failed_batches", report.FailedBatches))
	return report, nil
}

func fetchBatches[T any](ctx context.Context, e *Enricher, report *Report, kind string, ids []string, size int,
	fetch func(context.Context, []string) ([]T, error), save func([]T) error) (int, error) {
	if len(ids) == 0 {
		e.logger.Debug("nothing to fetch", zap.String("kind", kind))
		return 0, nil
	}

	bar := e.progress(len(ids), "fetching "+kind)
	defer bar.Finish()

	saved := 0
	for start := 0; start < len(ids); start += size {
		batch := ids[start:min(start+size, len(ids))]
		if err := e.CatalogLimiter.Wait(ctx); err != nil {
			return saved, err
		}

		items, err := withRetry(e, func() ([]T, error) {
			return fetch(ctx, batch)
		})
		bar.Add(len(batch))
		if errors.Is(err, ErrUnauthorized) {
			return saved, err
		}
		if err != nil {
			report.FailedBatches++
			e.logger.Error("fetching batch failed",
				zap.String("kind", kind),
				zap.Strings("ids", batch),
				zap.Error(err))
			continue
		}

		if err := save(items); err != nil {
			return saved, fmt.Errorf("saving %s: %w", kind, err)
		}
		saved += len(items)
		e.logger.Debug("saved batch", zap.String("kind", kind), zap.Int("count", len(items)))
	}
	return saved, nil
}

func (e *Enricher) fetchFacts(ctx context.Context) (int, error) {
	ids, err := e.db.ArtistsWithoutFacts()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	bar := e.progress(len(ids), "fetching artist facts")
	defer bar.Finish()

	saved := 0
	var pending []store.ArtistFacts
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := e.db.SaveArtistFacts(pending); err != nil {
			return fmt.Errorf("saving artist facts: %w", err)
		}
		saved += len(pending)
		pending = pending[:0]
		return nil
	}

	for _, id := range ids {
		if err := e.FactsLimiter.Wait(ctx); err != nil {
			return saved, err
		}
		facts, err := withRetry(e, func() (store.ArtistFacts, error) {
			return e.facts.ArtistFacts(ctx, id)
		})
		bar.Add(1)
		if err != nil {
			// Left unmarked so the next run asks again.
			e.logger.Warn("fetching artist facts failed", zap.String("artist_id", id), zap.Error(err))
			continue
		}
		pending = append(pending, facts)
		if len(pending) == factsBatchSize {
			if err := flush(); err != nil {
				return saved, err
			}
		}
	}
	return saved, flush()
}

func withRetry[T any](e *Enricher, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error
	err := retry.Do(
		func() error {
			result, lastErr = fn()
			return lastErr
		},
		retry.Attempts(e.Attempts),
		retry.Delay(e.RetryDelay),
		retry.RetryIf(func(err error) bool {
			if transient(err) {
				e.logger.Warn("request failed, retrying", zap.Error(err))
				return true
			}
			return false
		}),
	)
	if err != nil {
		return result, lastErr
	}
	return result, nil
}

func (e *Enricher) progress(n int, description string) *progressbar.ProgressBar {
	if e.Quiet {
		return progressbar.DefaultSilent(int64(n), description)
	}
	return progressbar.Default(int64(n), description)
}
