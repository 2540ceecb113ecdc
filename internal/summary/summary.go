package summary

import (
	"fmt"
	"math"

	"github.com/ademuri/streaming-stats/internal/history"
	"github.com/ademuri/streaming-stats/internal/stats"
)

const (
	forwardButton = "forward button"
	clickrow      = "clickrow"

	// Placeholder for top entities that do not exist.
	NoEntity = "-"
)

var topShares = []int{10, 100, 500}

// Compute derives the headline stats from the events and the tables computed
// over them. A nil catalog leaves out the stats that need catalog metadata.
func Compute(events []history.Event, tables []stats.Table, catalog stats.Catalog) Record {
	var r Record
	full := fullPlays(events)
	all := float64(len(events))
	played := float64(len(full))

	first, last, ok := stats.DayRange(events)
	days := 0
	if ok {
		r.add("first_day", first.Format("2006-01-02"))
		r.add("last_day", last.Format("2006-01-02"))
		days = int(last.Sub(first).Hours() / 24)
	} else {
		r.add("first_day", NoEntity)
		r.add("last_day", NoEntity)
	}
	r.add("number_of_days", days)

	playedDays := make(map[string]bool)
	for _, e := range full {
		playedDays[e.YearMonthDay] = true
	}
	r.add("number_of_days_with_tracks_played", len(playedDays))
	r.add("percent_of_days_with_tracks_played", percent(float64(len(playedDays)), float64(days)))

	r.add("played_songs", len(full))
	r.add("played_songs_per_day", round(ratio(played, float64(days))))

	uniqueTracks := countDistinct(full, func(e history.Event) any { return e.Track })
	uniqueArtists := countDistinct(full, func(e history.Event) any { return e.Artist })
	uniqueAlbums := countDistinct(full, func(e history.Event) any { return e.Album })
	r.add("unique_tracks_played", uniqueTracks)
	r.add("unique_artists_played", uniqueArtists)
	r.add("unique_albums_played", uniqueAlbums)
	r.add("unique_tracks_played_per_artist", stats.Round(ratio(float64(uniqueTracks), float64(uniqueArtists)), 1))

	hours := 0.0
	for _, e := range events {
		hours += e.HoursPlayed
	}
	listeningHours := round(hours)
	r.add("listening_hours", listeningHours)
	perDay := FormatHours(ratio(float64(listeningHours), float64(days)))
	r.add("listening_hours_per_day", perDay[:len(perDay)-1])

	shuffled := count(full, func(e history.Event) bool { return e.Shuffle })
	r.add("percent_of_played_songs_using_shuffle", percent(float64(shuffled), played))

	skipped := filter(events, func(e history.Event) bool { return e.ReasonEnd == forwardButton })
	skips := float64(len(skipped))
	r.add("skipped_songs", len(skipped))
	r.add("percent_of_skipped_songs", percent(skips, all))

	skippedMinutes := 0.0
	for _, e := range skipped {
		skippedMinutes += e.MinutesPlayed
	}
	r.add("avg_seconds_played_before_skipping", round(ratio(skippedMinutes, skips)*60))
	r.add("percent_of_songs_skipped_before_3s",
		percent(float64(count(skipped, func(e history.Event) bool { return e.MinutesPlayed < 3.0/60 })), skips))
	r.add("percent_of_songs_skipped_after_30s",
		percent(float64(count(skipped, func(e history.Event) bool { return e.MinutesPlayed > 30.0/60 })), skips))
	r.add("percent_of_songs_skipped_after_120s",
		percent(float64(count(skipped, func(e history.Event) bool { return e.MinutesPlayed > 2 })), skips))

	startedShuffled := float64(count(events, func(e history.Event) bool { return e.Shuffle }))
	skippedShuffled := count(skipped, func(e history.Event) bool { return e.Shuffle })
	r.add("percent_of_skipped_songs_using_shuffle", percent(float64(skippedShuffled), startedShuffled))
	r.add("percent_of_skipped_songs_not_using_shuffle", percent(float64(len(skipped)-skippedShuffled), startedShuffled))

	for _, reason := range []struct{ name, label string }{
		{"forward_button", forwardButton},
		{"back_button", "back button"},
		{"trackdone", "trackdone"},
		{"clickrow", clickrow},
	} {
		n := count(events, func(e history.Event) bool { return e.ReasonStart == reason.label })
		r.add("percent_reason_start_"+reason.name, percent(float64(n), all))
	}

	incognito := count(full, func(e history.Event) bool { return e.Incognito })
	r.add("percent_of_played_songs_using_incognito_mode", percent(float64(incognito), played))
	r.add("average_play_count_per_song", stats.Round(ratio(played, float64(uniqueTracks)), 1))
	clicked := count(full, func(e history.Event) bool { return e.ReasonStart == clickrow })
	r.add("percent_played_songs_reason_start_clickrow", percent(float64(clicked), played))

	for _, unit := range []string{"artist", "track"} {
		cumulative, _ := stats.Find(tables, "cumulative_percent_play_count_"+unit)
		for _, n := range topShares {
			r.add(fmt.Sprintf("top_%d_%s_play_count_percent", n, unit), round(stats.TopPercent(cumulative, n)))
		}
	}

	topArtists := topNames(tables, "most_played_artists_total", "artist")
	topTracks := topNames(tables, "most_played_tracks_total", "track")
	for i := 0; i < 3; i++ {
		r.add(fmt.Sprintf("top_%d_artist", i+1), nth(topArtists, i))
		r.add(fmt.Sprintf("top_%d_track", i+1), nth(topTracks, i))
	}

	if catalog != nil {
		addCatalogStats(&r, full, catalog)
	}
	return r
}

func addCatalogStats(r *Record, full []history.Event, catalog stats.Catalog) {
	known, explicit, popularity := 0, 0, 0
	for _, e := range full {
		info, ok := catalog.Track(e.TrackID)
		if !ok {
			continue
		}
		known++
		popularity += info.Popularity
		if info.Explicit {
			explicit++
		}
	}
	r.add("percent_of_played_songs_explicit", percent(float64(explicit), float64(known)))
	r.add("average_track_popularity", stats.Round(ratio(float64(popularity), float64(known)), 1))
}

// FormatHours renders hours as "12h" from ten hours up, and as "1:05h" below.
func FormatHours(hours float64) string {
	if hours >= 10 {
		return fmt.Sprintf("%dh", round(hours))
	}
	whole := int(hours)
	minutes := round((hours - float64(whole)) * 60)
	if minutes == 60 {
		whole, minutes = whole+1, 0
	}
	return fmt.Sprintf("%d:%02dh", whole, minutes)
}

func topNames(tables []stats.Table, name, column string) []string {
	t, ok := stats.Find(tables, name)
	if !ok {
		return nil
	}
	c := t.Column(column)
	if c < 0 {
		return nil
	}
	var names []string
	for _, row := range t.Data {
		switch v := row[c].(type) {
		case history.EntityKey:
			names = append(names, v.Name)
		case string:
			names = append(names, v)
		}
	}
	return names
}

func nth(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return NoEntity
}

// round rounds half to even.
func round(f float64) int {
	return int(math.RoundToEven(f))
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func percent(num, den float64) int {
	return round(ratio(num, den) * 100)
}

func fullPlays(events []history.Event) []history.Event {
	return filter(events, func(e history.Event) bool { return e.FullPlay })
}

func filter(events []history.Event, keep func(history.Event) bool) []history.Event {
	var out []history.Event
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func count(events []history.Event, match func(history.Event) bool) int {
	n := 0
	for _, e := range events {
		if match(e) {
			n++
		}
	}
	return n
}

func countDistinct(events []history.Event, key func(history.Event) any) int {
	seen := make(map[any]bool)
	for _, e := range events {
		seen[key(e)] = true
	}
	return len(seen)
}
