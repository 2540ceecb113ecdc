package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ademuri/streaming-stats/internal/stats"
)

func TestRenderTableEmpty(t *testing.T) {
	var out bytes.Buffer
	err := renderTable(&out, stats.Table{Name: "plays_per_county_total", Columns: []string{"country", "play count"}})
	if err != nil {
		t.Fatalf("renderTable error: %v", err)
	}
	if want := "plays_per_county_total:\nNo listens found.\n"; out.String() != want {
		t.Errorf("renderTable = %q, want %q", out.String(), want)
	}
}

func TestTableHTML(t *testing.T) {
	table := stats.Table{
		Name:    "most_played_artists_total",
		Columns: []string{"artist", "monthly play count<br>(up to 2 plays)"},
		Data: [][]any{
			{"Simon & Garfunkel", "data:image/bmp;base64,Qk0="},
			{"<script>", 1.5},
		},
	}
	got := tableHTML(table)
	for _, want := range []string{
		"<th>monthly play count<br>(up to 2 plays)</th>",
		"<td>Simon &amp; Garfunkel</td>",
		`<td><img src="data:image/bmp;base64,Qk0="></td>`,
		"<td>&lt;script&gt;</td><td>1.50</td>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("tableHTML missing %q in:\n%s", want, got)
		}
	}

	if got := tableHTML(stats.Table{Columns: []string{"a"}}); !strings.Contains(got, "No listens found.") {
		t.Errorf("empty tableHTML = %q", got)
	}
}
