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
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ademuri/streaming-stats/internal/enrich"
	"github.com/ademuri/streaming-stats/internal/store"
)

type EnrichConfig struct {
	ExportDir    string
	DbPath       string
	ClientID     string
	ClientSecret string
	RefreshToken string
	SkipWikidata bool
}

var enrichCmd = &cobra.Command{
	Use:   "enrich <export-dir>",
	Short: "Fetches catalog metadata of the played tracks",
	Long: `Fetches track, album and artist metadata from the Spotify Web API, and artist
facts from Wikidata, into the SQLite cache. Only ids missing from the cache are fetched.
Credentials are read from SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET and, optionally,
SPOTIFY_REFRESH_TOKEN (environment, .env file or config file).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := EnrichConfig{
			ExportDir:    args[0],
			DbPath:       viper.GetString("database"),
			ClientID:     viper.GetString("spotify_client_id"),
			ClientSecret: viper.GetString("spotify_client_secret"),
			RefreshToken: viper.GetString("spotify_refresh_token"),
			SkipWikidata: viper.GetBool("skip_wikidata"),
		}
		logger, err := newLogger()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer logger.Sync()

		if err := runEnrich(context.Background(), logger, config); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().Bool("skip_wikidata", false, "Do not look up artist facts on Wikidata")
	viper.BindPFlag("skip_wikidata", enrichCmd.Flags().Lookup("skip_wikidata"))
}

// spotifyHTTPClient authenticates with the user's refresh token when there is
// one, and with the client credentials flow otherwise.
func spotifyHTTPClient(ctx context.Context, config EnrichConfig) (*http.Client, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("spotify_client_id and spotify_client_secret must be set in order to fetch metadata")
	}

	if config.RefreshToken != "" {
		authenticator := spotifyauth.New(
			spotifyauth.WithClientID(config.ClientID),
			spotifyauth.WithClientSecret(config.ClientSecret),
		)
		return authenticator.Client(ctx, &oauth2.Token{RefreshToken: config.RefreshToken}), nil
	}

	credentials := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := credentials.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}
	return spotifyauth.New().Client(ctx, token), nil
}

func runEnrich(ctx context.Context, logger *zap.Logger, config EnrichConfig) error {
	events, err := loadEvents(logger, config.ExportDir, nil)
	if err != nil {
		return err
	}

	httpClient, err := spotifyHTTPClient(ctx, config)
	if err != nil {
		return err
	}

	db, err := store.New(config.DbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var facts enrich.FactSource
	if !config.SkipWikidata {
		facts = enrich.NewWikidata()
	}
	enricher := enrich.New(db, enrich.NewSpotifyCatalog(httpClient), facts, logger)
	report, err := enricher.Run(ctx, trackIDs(events))
	if err != nil {
		return fmt.Errorf("enriching: %w", err)
	}

	fmt.Printf("Cached %d tracks, %d artists, %d albums and facts of %d artists\n",
		report.Tracks, report.Artists, report.Albums, report.Facts)
	if report.FailedBatches > 0 {
		fmt.Printf("%d batches failed, run enrich again to retry them\n", report.FailedBatches)
	}
	return nil
}
