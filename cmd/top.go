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
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/streaming-stats/internal/countries"
	"github.com/ademuri/streaming-stats/internal/history"
	"github.com/ademuri/streaming-stats/internal/stats"
)

var topKinds = map[string]func(events []history.Event, k int, suffix string) (stats.Table, error){
	"artists": stats.MostPlayedArtists,
	"tracks":  stats.MostPlayedTracks,
	"albums":  stats.MostPlayedAlbums,
}

var topCmd = &cobra.Command{
	Use:   "top <export-dir> [from] [to (optional)]",
	Short: "Prints the most played artists, tracks or albums",
	Long:  `Uses the specified date or date range. Date strings look like 'yyyy', 'yyyy-mm', or 'yyyy-mm-dd'.`,
	Args:  cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := newLogger()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer logger.Sync()

		if err := printTop(logger, os.Stdout, viper.GetString("kind"), viper.GetInt("number"), args[0], args[1:]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(topCmd)

	topCmd.Flags().IntP("number", "n", 10, "number of results to return")
	viper.BindPFlag("number", topCmd.Flags().Lookup("number"))

	topCmd.Flags().String("kind", "artists", "artists, tracks or albums")
	viper.BindPFlag("kind", topCmd.Flags().Lookup("kind"))
}

func printTop(logger *zap.Logger, out io.Writer, kind string, n int, dir string, dateArgs []string) error {
	mostPlayed, ok := topKinds[kind]
	if !ok {
		return fmt.Errorf("Invalid kind %q, expected artists, tracks or albums", kind)
	}
	if n <= 0 {
		return fmt.Errorf("Number of results must be positive, got %d", n)
	}

	events, err := loadEvents(logger, dir, dateArgs)
	if err != nil {
		return err
	}
	table, err := mostPlayed(events, n, "")
	if err != nil {
		return fmt.Errorf("ranking %s: %w", kind, err)
	}
	return renderTable(out, stats.PostProcess([]stats.Table{table}, countries.Name)[0])
}
