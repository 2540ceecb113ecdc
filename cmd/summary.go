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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ademuri/streaming-stats/internal/stats"
	"github.com/ademuri/streaming-stats/internal/summary"
)

var summaryFormat string
var summaryCmd = &cobra.Command{
	Use:   "summary <export-dir> [from] [to (optional)]",
	Short: "Prints the summary statistics of a streaming history export",
	Args:  cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := newLogger()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer logger.Sync()

		if err := printSummary(logger, os.Stdout, summaryFormat, args[0], args[1:]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().StringVarP(&summaryFormat, "format", "f", "json", "json, yaml or table")
}

func computeSummary(logger *zap.Logger, dir string, dateArgs []string) (summary.Record, error) {
	events, err := loadEvents(logger, dir, dateArgs)
	if err != nil {
		return nil, err
	}
	tables, err := stats.Compute(events, stats.Options{})
	if err != nil {
		return nil, fmt.Errorf("computing tables: %w", err)
	}
	return summary.Compute(events, tables, nil), nil
}

func printSummary(logger *zap.Logger, out io.Writer, format string, dir string, dateArgs []string) error {
	switch format {
	case "json", "yaml", "table":
	default:
		return fmt.Errorf("Invalid format %q, expected json, yaml or table", format)
	}

	record, err := computeSummary(logger, dir, dateArgs)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(record)
	default:
		return renderSummary(out, record)
	}
}
