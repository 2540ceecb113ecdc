package history

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05Z"

const (
	// Offline timestamps above this are in milliseconds.
	millisecondThreshold = 2e9
	// Offline timestamps at or below this are placeholders.
	minOfflineTimestamp = 100

	naturalCompletion = "trackdone"
)

var reasonStartLabels = map[string]string{
	"backbtn": "back button",
	"fwdbtn":  "forward button",
	"playbtn": "play button",
}

var reasonEndLabels = map[string]string{
	"backbtn": "back button",
	"endplay": "end play",
	"fwdbtn":  "forward button",
}

// MalformedTimestampError reports a ts value that does not match the export format.
type MalformedTimestampError struct {
	Index int
	Value string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("record %d: malformed timestamp %q", e.Index, e.Value)
}

// PreprocessStats counts what cleaning did to the input.
type PreprocessStats struct {
	Loaded              int
	DroppedMissingTrack int
	DroppedDuplicates   int
	OfflineReconciled   int
	ClampedNegative     int
}

// Preprocess turns loaded records into events sorted by timestamp.
func Preprocess(records []Record) ([]Event, PreprocessStats, error) {
	stats := PreprocessStats{Loaded: len(records)}

	seen := make(map[Record]struct{}, len(records))
	events := make([]Event, 0, len(records))
	for i, r := range records {
		if r.Track == MissingValue {
			stats.DroppedMissingTrack++
			continue
		}
		if _, ok := seen[r]; ok {
			stats.DroppedDuplicates++
			continue
		}
		seen[r] = struct{}{}

		ts, err := time.Parse(timestampLayout, r.Timestamp)
		if err != nil {
			return nil, stats, &MalformedTimestampError{Index: i, Value: r.Timestamp}
		}
		if offline, ok := offlineTime(r.OfflineTimestamp); ok {
			ts = offline
			stats.OfflineReconciled++
		}

		ms := r.MsPlayed
		if ms < 0 {
			ms = 0
			stats.ClampedNegative++
		}

		events = append(events, newEvent(r, ts.UTC(), ms))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	indexMonths(events)
	return events, stats, nil
}

func offlineTime(raw int64) (time.Time, bool) {
	v := float64(raw)
	if v > millisecondThreshold {
		v /= 1000
	}
	if v <= minOfflineTimestamp {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(math.Round(v * 1000))).UTC(), true
}

func newEvent(r Record, ts time.Time, ms int64) Event {
	return Event{
		TrackID:       trackID(r.TrackURI),
		Track:         EntityKey{Name: r.Track, Artist: r.Artist},
		Artist:        r.Artist,
		Album:         EntityKey{Name: r.Album, Artist: r.Artist},
		Timestamp:     ts,
		MsPlayed:      ms,
		MinutesPlayed: float64(ms) / 60000,
		HoursPlayed:   float64(ms) / 3600000,
		ReasonStart:   recode(reasonStartLabels, r.ReasonStart),
		ReasonEnd:     recode(reasonEndLabels, r.ReasonEnd),
		FullPlay:      r.ReasonEnd == naturalCompletion,
		Shuffle:       r.Shuffle,
		Offline:       r.Offline,
		Incognito:     r.Incognito,
		ConnCountry:   r.ConnCountry,
		Platform:      r.Platform,
		Year:          ts.Year(),
		Month:         ts.Month(),
		YearMonth:     MonthOf(ts),
		YearMonthDay:  ts.Format("2006-01-02"),
		DayName:       WeekdayOf(ts.Weekday()),
	}
}

func recode(labels map[string]string, reason string) string {
	if label, ok := labels[reason]; ok {
		return label
	}
	return reason
}

func trackID(uri string) string {
	if uri == "" || uri == MissingValue {
		return ""
	}
	return uri[strings.LastIndex(uri, ":")+1:]
}

// indexMonths sets MonthIndex relative to the earliest month bucket.
func indexMonths(events []Event) {
	if len(events) == 0 {
		return
	}
	first := events[0].YearMonth.Ordinal()
	for _, e := range events[1:] {
		first = min(first, e.YearMonth.Ordinal())
	}
	for i := range events {
		events[i].MonthIndex = events[i].YearMonth.Ordinal() - first
	}
}

// Window returns a copy of the events played in [start, end), with month
// indexes recomputed against the window's first month. A zero bound is open.
func Window(events []Event, start, end time.Time) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !start.IsZero() && e.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && !e.Timestamp.Before(end) {
			continue
		}
		out = append(out, e)
	}
	indexMonths(out)
	return out
}
