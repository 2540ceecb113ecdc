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
	"os"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/streaming-stats/internal/logging"
)

var cfgFile string
var databasePath string
var logLevel string
var logFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "streaming-stats",
	Short: "Computes listening statistics from a Spotify streaming history export",
	Long: `Reads the JSON files of an extended streaming history export, either unpacked
or straight from the data download zip, cleans them and computes ranking tables, time series, sparklines and summary statistics.
Catalog metadata can be fetched from Spotify and Wikidata with the enrich command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.streaming-stats.yaml)")

	rootCmd.PersistentFlags().StringVarP(
		&databasePath, "database", "d", "./streaming.db", "Path to the SQLite metadata cache")
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))

	rootCmd.PersistentFlags().StringVar(&logLevel, "log_level", "info", "debug, info, warn or error")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))

	rootCmd.PersistentFlags().StringVar(&logFile, "log_file", "", "Also write JSON logs to this rotated file")
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log_file"))

	var sendgridKey string
	rootCmd.PersistentFlags().StringVar(&sendgridKey, "sendgrid_api_key", "", "SendGrid API key")
	viper.BindPFlag("sendgrid_api_key", rootCmd.PersistentFlags().Lookup("sendgrid_api_key"))

	var from string
	rootCmd.PersistentFlags().StringVar(&from, "from", "", "From email address")
	viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))
}

// initConfig reads in the .env file, config file and ENV variables if set.
func initConfig() {
	// A missing .env file is fine.
	godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".streaming-stats" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".streaming-stats")
	}

	viper.BindEnv("spotify_client_id", "SPOTIFY_CLIENT_ID")
	viper.BindEnv("spotify_client_secret", "SPOTIFY_CLIENT_SECRET")
	viper.BindEnv("spotify_refresh_token", "SPOTIFY_REFRESH_TOKEN")
	viper.BindEnv("sendgrid_api_key", "SENDGRID_API_KEY")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}

func newLogger() (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:      viper.GetString("log_level"),
		File:       viper.GetString("log_file"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
}
