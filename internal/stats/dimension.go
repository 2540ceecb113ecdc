package stats

import (
	"cmp"
	"slices"

	"github.com/ademuri/streaming-stats/internal/history"
)

// dimension is an entity events can be grouped by.
type dimension[K comparable] struct {
	column  string
	key     func(history.Event) K
	compare func(a, b K) int
	// name is the entity name without its artist.
	name func(K) string
}

var (
	artists = dimension[string]{
		column:  "artist",
		key:     func(e history.Event) string { return e.Artist },
		compare: cmp.Compare[string],
		name:    func(k string) string { return k },
	}
	tracks = dimension[history.EntityKey]{
		column:  "track",
		key:     func(e history.Event) history.EntityKey { return e.Track },
		compare: history.EntityKey.Compare,
		name:    func(k history.EntityKey) string { return k.Name },
	}
	albums = dimension[history.EntityKey]{
		column:  "album",
		key:     func(e history.Event) history.EntityKey { return e.Album },
		compare: history.EntityKey.Compare,
		name:    func(k history.EntityKey) string { return k.Name },
	}
)

// total accumulates the events of one group.
type total[K any] struct {
	key   K
	plays int
	hours float64
}

// totals groups events by dimension, counting full plays and summing hours
// over every event. Result is sorted by descending plays, ties by key.
func totals[K comparable](events []history.Event, d dimension[K]) []total[K] {
	index := make(map[K]int)
	var out []total[K]
	for _, e := range events {
		k := d.key(e)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, total[K]{key: k})
		}
		if e.FullPlay {
			out[i].plays++
		}
		out[i].hours += e.HoursPlayed
	}
	sortByPlays(out, d.compare)
	return out
}

// counts groups events by dimension, counting every event.
func counts[K comparable](events []history.Event, key func(history.Event) K, compare func(a, b K) int) []total[K] {
	index := make(map[K]int)
	var out []total[K]
	for _, e := range events {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, total[K]{key: k})
		}
		out[i].plays++
		out[i].hours += e.HoursPlayed
	}
	sortByPlays(out, compare)
	return out
}

func sortByPlays[K any](ts []total[K], compare func(a, b K) int) {
	slices.SortFunc(ts, func(a, b total[K]) int {
		if c := cmp.Compare(b.plays, a.plays); c != 0 {
			return c
		}
		return compare(a.key, b.key)
	})
}

func fullPlays(events []history.Event) []history.Event {
	out := make([]history.Event, 0, len(events))
	for _, e := range events {
		if e.FullPlay {
			out = append(out, e)
		}
	}
	return out
}

func filter(events []history.Event, keep func(history.Event) bool) []history.Event {
	out := make([]history.Event, 0, len(events))
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
