package history

import (
	"cmp"
	"fmt"
	"time"
)

// EntityKey identifies a track or album together with its artist, so that
// same-named entities by different artists never group together.
type EntityKey struct {
	Name   string
	Artist string
}

// Split returns the entity name and the artist.
func (k EntityKey) Split() (name, artist string) {
	return k.Name, k.Artist
}

func (k EntityKey) String() string {
	return fmt.Sprintf("%s (by %s)", k.Name, k.Artist)
}

// Compare orders keys by name, then by artist.
func (k EntityKey) Compare(o EntityKey) int {
	if c := cmp.Compare(k.Name, o.Name); c != 0 {
		return c
	}
	return cmp.Compare(k.Artist, o.Artist)
}

// MonthBucket is a calendar year-month.
type MonthBucket struct {
	Year  int
	Month time.Month
}

// MonthOf returns the bucket t falls into.
func MonthOf(t time.Time) MonthBucket {
	return MonthBucket{Year: t.Year(), Month: t.Month()}
}

// Ordinal counts months since year zero.
func (b MonthBucket) Ordinal() int {
	return b.Year*12 + int(b.Month) - 1
}

func (b MonthBucket) Compare(o MonthBucket) int {
	return cmp.Compare(b.Ordinal(), o.Ordinal())
}

func (b MonthBucket) String() string {
	return fmt.Sprintf("%04d-%02d", b.Year, int(b.Month))
}

// Weekday is a day of the week with Monday first.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf converts a time.Weekday, where Sunday is first.
func WeekdayOf(d time.Weekday) Weekday {
	return Weekday((int(d) + 6) % 7)
}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return time.Weekday((int(d) + 1) % 7).String()
}

// Event is one cleaned playback.
type Event struct {
	// TrackID is the catalog id from the track URI, empty when unknown.
	TrackID string
	Track   EntityKey
	Artist  string
	Album   EntityKey

	Timestamp     time.Time
	MsPlayed      int64
	MinutesPlayed float64
	HoursPlayed   float64

	ReasonStart string
	ReasonEnd   string
	FullPlay    bool
	Shuffle     bool
	Offline     bool
	Incognito   bool
	ConnCountry string
	Platform    string

	Year         int
	Month        time.Month
	YearMonth    MonthBucket
	YearMonthDay string
	DayName      Weekday
	MonthIndex   int
}

// Hour is the UTC hour of day the playback was logged at.
func (e Event) Hour() int {
	return e.Timestamp.Hour()
}

// Day truncates the timestamp to its UTC calendar day.
func (e Event) Day() time.Time {
	y, m, d := e.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
