package stats

import (
	"fmt"

	"github.com/ademuri/streaming-stats/internal/history"
	"github.com/ademuri/streaming-stats/internal/sparkline"
)

const (
	playCountColumn    = "play count"
	hoursPlayedColumn  = "hours_played"
	uniqueTracksColumn = "# of unique tracks played"
)

// MonthlyImageColumn names the sparkline column for a batch scaled so that
// maxPlays is a full-height bar.
func MonthlyImageColumn(maxPlays int) string {
	return fmt.Sprintf("monthly play count<br>(up to %d plays)", maxPlays)
}

// MostPlayedArtists ranks artists by full plays.
func MostPlayedArtists(events []history.Event, k int, suffix string) (Table, error) {
	return mostPlayed(events, k, suffix, artists)
}

// MostPlayedTracks ranks tracks by full plays.
func MostPlayedTracks(events []history.Event, k int, suffix string) (Table, error) {
	return mostPlayed(events, k, suffix, tracks)
}

// MostPlayedAlbums ranks albums by full plays.
func MostPlayedAlbums(events []history.Event, k int, suffix string) (Table, error) {
	return mostPlayed(events, k, suffix, albums)
}

// mostPlayed keeps the k entities with the most full plays, with a monthly
// sparkline of their full plays. Entities without any full play have no
// sparkline and are left out.
func mostPlayed[K comparable](events []history.Event, k int, suffix string, d dimension[K]) (Table, error) {
	name := fmt.Sprintf("most_played_%ss_total%s", d.column, suffix)

	top := totals(events, d)
	if len(top) > k {
		top = top[:k]
	}
	selected := make(map[K]bool, len(top))
	for _, t := range top {
		selected[t.key] = true
	}

	batch := make(map[K]sparkline.Series)
	for _, e := range events {
		key := d.key(e)
		if !e.FullPlay || !selected[key] {
			continue
		}
		s, ok := batch[key]
		if !ok {
			s = sparkline.Series{}
			batch[key] = s
		}
		s[e.MonthIndex]++
	}
	images, err := sparkline.Render(batch)
	if err != nil {
		return Table{}, fmt.Errorf("rendering %s: %w", name, err)
	}

	var uniqueTracks map[string]int
	columns := []string{d.column, playCountColumn, hoursPlayedColumn}
	if d.column == artists.column {
		uniqueTracks = uniqueTracksPerArtist(events)
		columns = append(columns, uniqueTracksColumn)
	}
	columns = append(columns, MonthlyImageColumn(images.MaxPlays))

	table := Table{Name: name, Columns: columns}
	for _, t := range top {
		image, ok := images.Images[t.key]
		if !ok {
			continue
		}
		row := []any{t.key, t.plays, t.hours}
		if uniqueTracks != nil {
			row = append(row, uniqueTracks[d.name(t.key)])
		}
		row = append(row, image)
		table.Data = append(table.Data, row)
	}
	return table, nil
}

func uniqueTracksPerArtist(events []history.Event) map[string]int {
	seen := make(map[history.EntityKey]bool)
	out := make(map[string]int)
	for _, e := range events {
		if seen[e.Track] {
			continue
		}
		seen[e.Track] = true
		out[e.Artist]++
	}
	return out
}

// TopSongsOfTopArtists lists the three most played tracks of each of the k
// most played artists.
func TopSongsOfTopArtists(events []history.Event, k int) Table {
	table := Table{
		Name:    "top_songs_of_top_artists",
		Columns: []string{"artist", "top-1 song", "top-2 song", "top-3 song"},
	}

	byArtist := make(map[string][]history.Event)
	for _, e := range events {
		byArtist[e.Artist] = append(byArtist[e.Artist], e)
	}

	top := totals(events, artists)
	if len(top) > k {
		top = top[:k]
	}
	for _, artist := range top {
		row := []any{fmt.Sprintf("%s (%d plays)", artist.key, artist.plays), nil, nil, nil}
		for i, track := range totals(byArtist[artist.key], tracks) {
			if i == 3 {
				break
			}
			row[i+1] = fmt.Sprintf("%s (%d plays)", track.key.Name, track.plays)
		}
		table.Data = append(table.Data, row)
	}
	return table
}
