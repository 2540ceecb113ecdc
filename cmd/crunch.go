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
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/streaming-stats/internal/countries"
	"github.com/ademuri/streaming-stats/internal/stats"
	"github.com/ademuri/streaming-stats/internal/store"
	"github.com/ademuri/streaming-stats/internal/summary"
)

// summaryName is the file and result name of the summary statistics.
const summaryName = "single_values"

type CrunchConfig struct {
	ExportDir string
	DateArgs  []string
	OutputDir string
	DbPath    string
	TopK      int
	OnlyTop   bool
	Enrich    bool
	Save      bool
	Print     bool
	Sample    int
	Seed      uint64
}

var crunchCmd = &cobra.Command{
	Use:   "crunch <export-dir> [from] [to (optional)]",
	Short: "Computes every statistic of a streaming history export",
	Long: `Writes one JSON file per table, plus single_values.json with the summary,
to the output directory. Date strings look like 'yyyy', 'yyyy-mm', or 'yyyy-mm-dd'.`,
	Args: cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		config := CrunchConfig{
			ExportDir: args[0],
			DateArgs:  args[1:],
			OutputDir: viper.GetString("output"),
			DbPath:    viper.GetString("database"),
			TopK:      viper.GetInt("top_k"),
			OnlyTop:   viper.GetBool("only_top"),
			Enrich:    viper.GetBool("enrich"),
			Save:      viper.GetBool("save"),
			Print:     viper.GetBool("print"),
			Sample:    viper.GetInt("sample"),
			Seed:      viper.GetUint64("seed"),
		}
		logger, err := newLogger()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer logger.Sync()

		if err := crunch(logger, config, os.Stdout); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(crunchCmd)

	crunchCmd.Flags().StringP("output", "o", "./output", "Directory to write the JSON tables to")
	viper.BindPFlag("output", crunchCmd.Flags().Lookup("output"))

	crunchCmd.Flags().Int("top_k", stats.DefaultTopK, "Number of entries in the ranking tables")
	viper.BindPFlag("top_k", crunchCmd.Flags().Lookup("top_k"))

	crunchCmd.Flags().Bool("only_top", false, "Only compute the ranking tables")
	viper.BindPFlag("only_top", crunchCmd.Flags().Lookup("only_top"))

	crunchCmd.Flags().Bool("enrich", false, "Add genre and release year tables from the metadata cache")
	viper.BindPFlag("enrich", crunchCmd.Flags().Lookup("enrich"))

	crunchCmd.Flags().Bool("save", false, "Also store the tables in the database")
	viper.BindPFlag("save", crunchCmd.Flags().Lookup("save"))

	crunchCmd.Flags().Bool("print", false, "Print the tables")
	viper.BindPFlag("print", crunchCmd.Flags().Lookup("print"))

	crunchCmd.Flags().Int("sample", 0, "Also output this many randomly chosen plays")
	viper.BindPFlag("sample", crunchCmd.Flags().Lookup("sample"))

	crunchCmd.Flags().Uint64("seed", 1, "Seed of the random sample")
	viper.BindPFlag("seed", crunchCmd.Flags().Lookup("seed"))
}

func crunch(logger *zap.Logger, config CrunchConfig, out io.Writer) error {
	events, err := loadEvents(logger, config.ExportDir, config.DateArgs)
	if err != nil {
		return err
	}

	opts := stats.Options{TopK: config.TopK, OnlyTop: config.OnlyTop}
	if config.Enrich {
		catalog, err := loadCatalog(logger, config.DbPath)
		if err != nil {
			return err
		}
		opts.Catalog = catalog
	}

	tables, err := stats.Compute(events, opts)
	if err != nil {
		return fmt.Errorf("computing tables: %w", err)
	}
	var record summary.Record
	if !config.OnlyTop {
		record = summary.Compute(events, tables, opts.Catalog)
	}
	if config.Sample > 0 {
		rng := rand.New(rand.NewPCG(config.Seed, config.Seed))
		tables = append(tables, stats.Sample(events, config.Sample, rng))
	}
	tables = stats.PostProcess(tables, countries.Name)

	results := make(map[string][]byte, len(tables)+1)
	var names []string
	for _, t := range tables {
		body, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", t.Name, err)
		}
		results[t.Name] = body
		names = append(names, t.Name)
	}
	if record != nil {
		body, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", summaryName, err)
		}
		results[summaryName] = body
		names = append(names, summaryName)
	}

	if err := writeResults(config.OutputDir, names, results); err != nil {
		return err
	}
	logger.Info("wrote tables", zap.String("dir", config.OutputDir), zap.Int("count", len(names)))

	if config.Save {
		if err := saveResults(config.DbPath, names, results); err != nil {
			return err
		}
		logger.Info("saved tables", zap.String("database", config.DbPath))
	}

	if config.Print {
		for _, t := range tables {
			if err := renderTable(out, t); err != nil {
				return err
			}
		}
		if record != nil {
			if err := renderSummary(out, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeResults(dir string, names []string, results map[string][]byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, name := range names {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, results[name], 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func saveResults(dbPath string, names []string, results map[string][]byte) error {
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, name := range names {
		if err := db.SaveResult(name, results[name]); err != nil {
			return err
		}
	}
	return nil
}
