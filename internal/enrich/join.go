package enrich

import (
	"slices"

	"github.com/ademuri/streaming-stats/internal/stats"
	"github.com/ademuri/streaming-stats/internal/store"
)

// Joined is the cached catalog joined by track id, then album id and
// primary artist id.
type Joined struct {
	tracks map[string]stats.TrackInfo
}

// Join reads the whole cache.
func Join(db *store.Store) (*Joined, error) {
	tracks, err := db.Tracks()
	if err != nil {
		return nil, err
	}
	albums, err := db.Albums()
	if err != nil {
		return nil, err
	}
	artists, err := db.Artists()
	if err != nil {
		return nil, err
	}
	return join(tracks, albums, artists), nil
}

func join(tracks map[string]store.Track, albums map[string]store.Album, artists map[string]store.Artist) *Joined {
	j := &Joined{tracks: make(map[string]stats.TrackInfo, len(tracks))}
	for id, t := range tracks {
		info := stats.TrackInfo{
			Explicit:    t.Explicit,
			Popularity:  t.Popularity,
			ReleaseYear: albums[t.AlbumID].ReleaseYear,
		}
		if a, ok := artists[t.ArtistID]; ok {
			info.Genres = mergeGenres(a.Genres, a.Facts.Genres)
		}
		j.tracks[id] = info
	}
	return j
}

func (j *Joined) Track(id string) (stats.TrackInfo, bool) {
	info, ok := j.tracks[id]
	return info, ok
}

func (j *Joined) Len() int {
	return len(j.tracks)
}

func mergeGenres(lists ...[]string) []string {
	var genres []string
	for _, l := range lists {
		genres = append(genres, l...)
	}
	slices.Sort(genres)
	return slices.Compact(genres)
}
