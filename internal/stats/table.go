// Package stats derives aggregate tables from cleaned listening events.
package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/ademuri/streaming-stats/internal/history"
)

// CountryCode is a table cell holding an ISO country code. PostProcess turns
// it into a country name.
type CountryCode string

// Table is one named aggregation result.
type Table struct {
	Name    string
	Columns []string
	Data    [][]any
}

// Column returns the index of the named column, or -1.
func (t Table) Column(name string) int {
	return slices.Index(t.Columns, name)
}

// Strings renders the cells of the table as text, header first.
func (t Table) Strings() [][]string {
	out := make([][]string, 0, len(t.Data)+1)
	out = append(out, t.Columns)
	for _, row := range t.Data {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		out = append(out, cells)
	}
	return out
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.2f", c)
	case history.EntityKey:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}

// MarshalJSON writes the table in split orientation, without an index and with
// every number rounded to two decimals.
func (t Table) MarshalJSON() ([]byte, error) {
	data := make([][]any, len(t.Data))
	for i, row := range t.Data {
		cells := make([]any, len(row))
		for j, v := range row {
			if f, ok := v.(float64); ok {
				v = Round(f, 2)
			}
			cells[j] = v
		}
		data[i] = cells
	}
	return json.Marshal(struct {
		Columns []string `json:"columns"`
		Data    [][]any  `json:"data"`
	}{t.Columns, data})
}

// Round rounds half to even at the given number of decimals.
func Round(f float64, decimals int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	scale := math.Pow(10, float64(decimals))
	return math.RoundToEven(f*scale) / scale
}
