package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/ademuri/streaming-stats/internal/store"
)

const (
	WikidataEndpoint  = "https://query.wikidata.org/sparql"
	WikidataUserAgent = "streaming-stats/1.0"
)

// Values of "instance of" that classify an artist.
var (
	personKinds = []string{"human", "solo musical project"}
	groupKinds  = []string{
		"musical group",
		"musical duo",
		"rock band",
		"orchestra",
		"symphony orchestra",
		"sibling duo",
		"musical trio",
		"girl group",
		"musical ensemble",
		"rap group",
	}
)

// artistQuery selects every labelled direct claim of the entity whose
// Spotify artist id (P1902) matches.
const artistQuery = `SELECT ?item ?propLabel ?valueLabel WHERE {
  ?item wdt:P1902 "%s".
  ?item ?prop ?value .
  ?property wikibase:directClaim ?prop .
  SERVICE wikibase:label {
    bd:serviceParam wikibase:language "[AUTO_LANGUAGE],en".
    ?property rdfs:label ?propLabel .
    ?value rdfs:label ?valueLabel .
  }
}`

// StatusError is a non-2xx answer from the knowledge graph.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wikidata returned %d %s", e.Code, http.StatusText(e.Code))
}

// Wikidata looks up artist facts with SPARQL queries.
type Wikidata struct {
	Endpoint   string
	UserAgent  string
	HTTPClient *http.Client
}

func NewWikidata() *Wikidata {
	return &Wikidata{
		Endpoint:   WikidataEndpoint,
		UserAgent:  WikidataUserAgent,
		HTTPClient: http.DefaultClient,
	}
}

type sparqlValue struct {
	Value string `json:"value"`
}

type sparqlBinding struct {
	Item       sparqlValue `json:"item"`
	PropLabel  sparqlValue `json:"propLabel"`
	ValueLabel sparqlValue `json:"valueLabel"`
}

type sparqlResponse struct {
	Results struct {
		Bindings []sparqlBinding `json:"bindings"`
	} `json:"results"`
}

// ArtistFacts returns the facts known about a Spotify artist. An artist
// missing from the graph yields empty facts and no error.
func (w *Wikidata) ArtistFacts(ctx context.Context, artistID string) (store.ArtistFacts, error) {
	facts := store.ArtistFacts{ArtistID: artistID}
	if strings.ContainsAny(artistID, "\"\\\n") {
		return facts, fmt.Errorf("invalid artist id %q", artistID)
	}

	params := url.Values{}
	params.Set("query", fmt.Sprintf(artistQuery, artistID))
	params.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return facts, fmt.Errorf("building wikidata request: %w", err)
	}
	req.Header.Set("User-Agent", w.UserAgent)
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return facts, fmt.Errorf("querying wikidata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return facts, &StatusError{Code: resp.StatusCode}
	}

	var body sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return facts, fmt.Errorf("decoding wikidata response: %w", err)
	}
	return flattenFacts(artistID, body), nil
}

func flattenFacts(artistID string, body sparqlResponse) store.ArtistFacts {
	facts := store.ArtistFacts{ArtistID: artistID}
	bindings := body.Results.Bindings
	if len(bindings) == 0 {
		return facts
	}

	item := bindings[0].Item.Value
	facts.EntityID = item[strings.LastIndex(item, "/")+1:]
	for _, b := range bindings {
		value := b.ValueLabel.Value
		switch strings.ToLower(b.PropLabel.Value) {
		case "instance of":
			if slices.Contains(personKinds, value) {
				f := false
				facts.IsBand = &f
			} else if slices.Contains(groupKinds, value) {
				t := true
				facts.IsBand = &t
			}
		case "sex or gender":
			facts.Gender = value
		case "country of citizenship", "country of origin":
			facts.Country = value
		case "date of birth":
			facts.BirthDate = value
		case "official website":
			facts.Website = value
		case "genre":
			if !slices.Contains(facts.Genres, value) {
				facts.Genres = append(facts.Genres, value)
			}
		}
	}
	slices.Sort(facts.Genres)
	return facts
}
