/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/ademuri/streaming-stats/internal/stats"
	"github.com/ademuri/streaming-stats/internal/summary"
)

const imagePrefix = "data:image/"

// renderTable draws a table as text. Sparkline images do not fit in a
// terminal and are replaced by a placeholder.
func renderTable(w io.Writer, t stats.Table) error {
	rows := t.Strings()
	fmt.Fprintf(w, "%s:\n", t.Name)
	if len(rows) <= 1 {
		fmt.Fprintln(w, "No listens found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header(rows[0])
	for _, row := range rows[1:] {
		for i, cell := range row {
			if strings.HasPrefix(cell, imagePrefix) {
				row[i] = "[sparkline]"
			}
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("rendering table %s: %w", t.Name, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table %s: %w", t.Name, err)
	}
	return nil
}

// renderSummary draws the summary statistics as a two-column table.
func renderSummary(w io.Writer, r summary.Record) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"statistic", "value"})
	for _, s := range r {
		if err := table.Append([]string{s.Name, fmt.Sprint(s.Value)}); err != nil {
			return fmt.Errorf("rendering summary: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}
	return nil
}

// tableHTML renders a table for an email body, showing sparklines inline.
func tableHTML(t stats.Table) string {
	rows := t.Strings()
	if len(rows) <= 1 {
		return "<div>No listens found.</div>\n"
	}

	var out strings.Builder
	out.WriteString("<table>\n<thead><tr>")
	for _, header := range rows[0] {
		// Column names carry their own markup.
		fmt.Fprintf(&out, "<th>%s</th>", header)
	}
	out.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range rows[1:] {
		out.WriteString("<tr>")
		for _, cell := range row {
			if strings.HasPrefix(cell, imagePrefix) {
				fmt.Fprintf(&out, `<td><img src="%s"></td>`, cell)
			} else {
				fmt.Fprintf(&out, "<td>%s</td>", html.EscapeString(cell))
			}
		}
		out.WriteString("</tr>\n")
	}
	out.WriteString("</tbody>\n</table>\n")
	return out.String()
}
