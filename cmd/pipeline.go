package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ademuri/streaming-stats/internal/enrich"
	"github.com/ademuri/streaming-stats/internal/history"
	"github.com/ademuri/streaming-stats/internal/store"
)

// loadEvents reads and cleans an export directory or data download zip, then
// keeps the events in the date range given by dateArgs. No dateArgs keeps
// everything.
func loadEvents(logger *zap.Logger, dir string, dateArgs []string) ([]history.Event, error) {
	start, end, err := parseOptionalDateRange(dateArgs)
	if err != nil {
		return nil, err
	}

	records, err := history.Read(dir)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	events, ps, err := history.Preprocess(records)
	if err != nil {
		return nil, fmt.Errorf("preprocessing: %w", err)
	}
	logger.Info("loaded streaming history",
		zap.String("dir", dir),
		zap.Int("records", ps.Loaded),
		zap.Int("events", len(events)),
		zap.Int("dropped_missing_track", ps.DroppedMissingTrack),
		zap.Int("dropped_duplicates", ps.DroppedDuplicates),
		zap.Int("offline_reconciled", ps.OfflineReconciled),
		zap.Int("clamped_negative", ps.ClampedNegative))

	if len(dateArgs) > 0 {
		events = history.Window(events, start, end)
		logger.Debug("filtered by date",
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Int("events", len(events)))
	}
	return events, nil
}

// loadCatalog joins the cached metadata by track id.
func loadCatalog(logger *zap.Logger, dbPath string) (*enrich.Joined, error) {
	db, err := store.New(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	catalog, err := enrich.Join(db)
	if err != nil {
		return nil, fmt.Errorf("joining catalog: %w", err)
	}
	if catalog.Len() == 0 {
		logger.Warn("metadata cache is empty, run enrich first", zap.String("database", dbPath))
	}
	return catalog, nil
}

// trackIDs returns the distinct track ids of events in play order.
func trackIDs(events []history.Event) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range events {
		if e.TrackID == "" || seen[e.TrackID] {
			continue
		}
		seen[e.TrackID] = true
		ids = append(ids, e.TrackID)
	}
	return ids
}
