package cmd

import (
	"fmt"
	"regexp"
	"time"
)

// ParsedDate is a date argument and the precision it was given with.
type ParsedDate struct {
	Date  time.Time
	Year  bool
	Month bool
	Day   bool
}

var dateFormats = []struct {
	pattern *regexp.Regexp
	layout  string
	name    string
	mark    func(*ParsedDate)
}{
	{regexp.MustCompile(`^\d{4}$`), "2006", "year", func(d *ParsedDate) { d.Year = true }},
	{regexp.MustCompile(`^\d{4}-\d{2}$`), "2006-01", "month", func(d *ParsedDate) { d.Month = true }},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02", "day", func(d *ParsedDate) { d.Day = true }},
}

// parseOptionalDateRange is parseDateRangeFromArgs, except that no arguments
// select everything: both bounds are left zero.
func parseOptionalDateRange(args []string) (start time.Time, end time.Time, err error) {
	if len(args) == 0 {
		return
	}
	return parseDateRangeFromArgs(args)
}

func parseDateRangeFromArgs(args []string) (start time.Time, end time.Time, err error) {
	switch len(args) {
	case 1:
		start, end, err = getImplicitDateRange(args[0])

	case 2:
		start, end, err = getExplicitDateRange(args[0], args[1])

	default:
		err = fmt.Errorf("Expected one or two date arguments")
	}
	return
}

// getImplicitDateRange covers the whole year, month or day given.
func getImplicitDateRange(ds string) (start time.Time, end time.Time, err error) {
	date, err := parseSingleDatestring(ds)
	if err != nil {
		return
	}

	start = date.Date
	switch {
	case date.Year:
		end = start.AddDate(1, 0, 0)
	case date.Month:
		end = start.AddDate(0, 1, 0)
	case date.Day:
		end = start.AddDate(0, 0, 1)
	}
	return
}

func getExplicitDateRange(startString, endString string) (start time.Time, end time.Time, err error) {
	startParsed, err := parseSingleDatestring(startString)
	if err != nil {
		return
	}
	endParsed, err := parseSingleDatestring(endString)
	if err != nil {
		return
	}
	if endParsed.Date.Before(startParsed.Date) {
		err = fmt.Errorf("End date %q is before start date %q", endString, startString)
		return
	}
	return startParsed.Date, endParsed.Date, nil
}

// parseSingleDatestring accepts 'yyyy', 'yyyy-mm' and 'yyyy-mm-dd', in UTC.
func parseSingleDatestring(ds string) (date ParsedDate, err error) {
	for _, f := range dateFormats {
		if !f.pattern.MatchString(ds) {
			continue
		}
		date.Date, err = time.Parse(f.layout, ds)
		if err != nil {
			err = fmt.Errorf("Parsing datestring as %s: %w", f.name, err)
			return
		}
		f.mark(&date)
		return
	}

	err = fmt.Errorf("Invalid format: %q", ds)
	return
}
