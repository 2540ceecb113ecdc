package stats

import (
	"runtime"
	"sync"

	"github.com/ademuri/streaming-stats/internal/history"
)

// DefaultTopK is the number of entities kept by the ranking tables.
const DefaultTopK = 20

// ClickrowSuffix marks ranking tables restricted to plays started from a row click.
const ClickrowSuffix = "_reason_start_clickrow"

type Options struct {
	// TopK bounds the ranking tables. Zero means DefaultTopK.
	TopK int

	// OnlyTop computes the ranking tables only.
	OnlyTop bool

	// Catalog adds the tables that need catalog metadata when set.
	Catalog Catalog

	// Workers is the number of aggregations computed at once. Zero means one
	// per CPU.
	Workers int
}

type aggregation func() ([]Table, error)

func one(f func() Table) aggregation {
	return func() ([]Table, error) { return []Table{f()}, nil }
}

func ranking(f func() (Table, error)) aggregation {
	return func() ([]Table, error) {
		t, err := f()
		if err != nil {
			return nil, err
		}
		return []Table{t}, nil
	}
}

// Compute runs every aggregation over events and returns the tables in a
// fixed order. Aggregations share no state and run on a pool of workers.
func Compute(events []history.Event, opts Options) ([]Table, error) {
	k := opts.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	clickrow := filter(events, func(e history.Event) bool { return e.ReasonStart == "clickrow" })

	jobs := []aggregation{
		ranking(func() (Table, error) { return MostPlayedArtists(events, k, "") }),
		ranking(func() (Table, error) { return MostPlayedTracks(events, k, "") }),
		ranking(func() (Table, error) { return MostPlayedAlbums(events, k, "") }),
		ranking(func() (Table, error) { return MostPlayedTracks(clickrow, k, ClickrowSuffix) }),
		one(func() Table { return TopSongsOfTopArtists(events, k) }),
	}
	if !opts.OnlyTop {
		jobs = append(jobs,
			one(func() Table { return MostPlayedMonthly(events) }),
			one(func() Table { return AvgTrackLengthMonthly(events) }),
			one(func() Table { return AvgPlayCountPerSongYearly(events) }),
			one(func() Table { return PlayCountDistribution(events) }),
			one(func() Table { return YearlyTrackPlayCount(events) }),
			one(func() Table { return HoursPerHourOfDay(events) }),
			func() ([]Table, error) { return AvgHoursPerDay(events), nil },
			one(func() Table { return PlaysPerCountry(events) }),
			one(func() Table { return CumulativePercentTracks(events) }),
			one(func() Table { return CumulativePercentArtists(events) }),
		)
		if opts.Catalog != nil {
			jobs = append(jobs,
				one(func() Table { return MostPlayedGenres(events, opts.Catalog, k) }),
				one(func() Table { return PlaysPerReleaseYear(events, opts.Catalog) }),
			)
		}
	}

	results, err := run(jobs, opts.Workers)
	if err != nil {
		return nil, err
	}
	var tables []Table
	for _, r := range results {
		tables = append(tables, r...)
	}
	return tables, nil
}

func run(jobs []aggregation, workers int) ([][]Table, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([][]Table, len(jobs))
	errs := make([]error, len(jobs))

	queue := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < min(workers, len(jobs)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				results[j], errs[j] = jobs[j]()
			}
		}()
	}
	for j := range jobs {
		queue <- j
	}
	close(queue)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Find returns the table with the given name.
func Find(tables []Table, name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
