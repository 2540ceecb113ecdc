package stats

import (
	"slices"

	"github.com/ademuri/streaming-stats/internal/history"
)

var renamedColumns = map[string]string{
	hoursPlayedColumn: "hours played",
	"year_month":      "month",
}

// PostProcess prepares tables for presentation: track and album keys are
// split into their name and an artist column, country codes become names,
// and internal column names are renamed. The input is left untouched.
func PostProcess(tables []Table, countryName func(code string) string) []Table {
	out := make([]Table, len(tables))
	for i, t := range tables {
		t = clone(t)
		for _, column := range []string{tracks.column, albums.column} {
			if c := t.Column(column); c >= 0 {
				t = splitEntity(t, c)
			}
		}
		for _, row := range t.Data {
			for j, v := range row {
				if code, ok := v.(CountryCode); ok {
					row[j] = countryName(string(code))
				}
			}
		}
		for j, name := range t.Columns {
			if renamed, ok := renamedColumns[name]; ok {
				t.Columns[j] = renamed
			}
		}
		out[i] = t
	}
	return out
}

func clone(t Table) Table {
	data := make([][]any, len(t.Data))
	for i, row := range t.Data {
		data[i] = slices.Clone(row)
	}
	return Table{Name: t.Name, Columns: slices.Clone(t.Columns), Data: data}
}

// splitEntity replaces the keys in column c by their names and, unless the
// table already has one, inserts an artist column after it.
func splitEntity(t Table, c int) Table {
	insert := t.Column(artists.column) < 0
	if insert {
		t.Columns = slices.Insert(t.Columns, c+1, artists.column)
	}
	for i, row := range t.Data {
		var name, artist any = row[c], nil
		if key, ok := row[c].(history.EntityKey); ok {
			name, artist = key.Name, key.Artist
		}
		row[c] = name
		if insert {
			t.Data[i] = slices.Insert(row, c+1, artist)
		}
	}
	return t
}
