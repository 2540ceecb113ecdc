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
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/streaming-stats/internal/countries"
	"github.com/ademuri/streaming-stats/internal/stats"
	"github.com/ademuri/streaming-stats/internal/summary"
)

type SendEmailConfig struct {
	From           string
	To             string
	ExportDir      string
	DateArgs       []string
	TopK           int
	DryRun         bool
	SendgridAPIKey string
}

var emailCmd = &cobra.Command{
	Use:   "email <address> <export-dir> [from] [to (optional)]",
	Short: "Sends an email report",
	Long: `Emails the summary statistics and the most played artists, tracks and albums,
with their monthly sparklines, to the given address.
Optional date arguments can be provided at the end (e.g. '2023-01' or '2023-01 2023-06').`,
	Args: cobra.RangeArgs(2, 4),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		config := SendEmailConfig{
			From:           viper.GetString("from"),
			To:             args[0],
			ExportDir:      args[1],
			DateArgs:       args[2:],
			TopK:           viper.GetInt("email_top_k"),
			DryRun:         viper.GetBool("dryRun"),
			SendgridAPIKey: viper.GetString("sendgrid_api_key"),
		}
		logger, err := newLogger()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer logger.Sync()

		if err := sendEmail(logger, config); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)

	var dryRun bool
	emailCmd.Flags().BoolVarP(&dryRun, "dry_run", "n", false, "When true, just print instead of emailing")
	viper.BindPFlag("dryRun", emailCmd.Flags().Lookup("dry_run"))

	emailCmd.Flags().Int("top_k", 10, "Number of entries in the ranking tables")
	viper.BindPFlag("email_top_k", emailCmd.Flags().Lookup("top_k"))
}

func sendEmail(logger *zap.Logger, config SendEmailConfig) error {
	events, err := loadEvents(logger, config.ExportDir, config.DateArgs)
	if err != nil {
		return err
	}
	tables, err := stats.Compute(events, stats.Options{TopK: config.TopK})
	if err != nil {
		return fmt.Errorf("computing tables: %w", err)
	}
	record := summary.Compute(events, tables, nil)

	subject, body := generateEmailContent(record, stats.PostProcess(tables, countries.Name))

	if config.DryRun {
		fmt.Printf("Would have sent email: \nsubject: %s\n%s\n", subject, body)
		return nil
	}
	if config.SendgridAPIKey == "" {
		return fmt.Errorf("sendgrid_api_key must be set in order to send emails")
	}

	from := mail.NewEmail("streaming-stats", config.From)
	to := mail.NewEmail(config.To, config.To)
	message := mail.NewSingleEmail(from, subject, to, subject, body)
	client := sendgrid.NewSendClient(config.SendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}
	if response.StatusCode/100 != 2 {
		return fmt.Errorf("sendEmail: SendGrid returned %d: %s", response.StatusCode, response.Body)
	}
	logger.Info("sent email", zap.String("to", config.To), zap.String("subject", subject))
	return nil
}

// Tables included in the email, in order.
var emailTables = []struct {
	name  string
	title string
}{
	{"most_played_artists_total", "Most played artists"},
	{"most_played_tracks_total", "Most played tracks"},
	{"most_played_albums_total", "Most played albums"},
}

func generateEmailContent(record summary.Record, tables []stats.Table) (subject string, body string) {
	first, _ := record.Get("first_day")
	last, _ := record.Get("last_day")
	subject = fmt.Sprintf("Listening summary for %v to %v", first, last)

	var out strings.Builder
	out.WriteString(`
<html>
  <head>
<style>
td {
  padding: 0.1em 0.2em;
}
table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
}
</style>
  </head>
  <body>
`)
	out.WriteString("<div>\n<h2>Summary:</h2>\n<table>\n")
	for _, s := range record {
		fmt.Fprintf(&out, "<tr><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(strings.ReplaceAll(s.Name, "_", " ")), html.EscapeString(fmt.Sprint(s.Value)))
	}
	out.WriteString("</table>\n</div>\n")

	for _, e := range emailTables {
		t, ok := stats.Find(tables, e.name)
		if !ok {
			continue
		}
		fmt.Fprintf(&out, "<div>\n<h2>%s:</h2>\n", e.title)
		out.WriteString(tableHTML(t))
		out.WriteString("</div>\n")
	}
	out.WriteString("  </body>\n</html>\n")
	return subject, out.String()
}
