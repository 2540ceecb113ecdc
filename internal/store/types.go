package store

import "strings"

// Track is catalog metadata of one track.
type Track struct {
	ID          string
	Name        string
	DurationMs  int
	Explicit    bool
	Popularity  int
	TrackNumber int
	DiscNumber  int
	AlbumID     string
	// ArtistID is the first of ArtistIDs.
	ArtistID  string
	ArtistIDs []string
}

// Album is catalog metadata of one album.
type Album struct {
	ID          string
	Name        string
	AlbumType   string
	TotalTracks int
	// ReleaseYear is zero when unknown.
	ReleaseYear int
	Popularity  int
	ArtistIDs   []string
	TrackIDs    []string
}

// Artist is catalog metadata of one artist, plus knowledge-graph facts once
// they have been looked up.
type Artist struct {
	ID         string
	Name       string
	Followers  int
	Genres     []string
	Popularity int

	Facts    ArtistFacts
	HasFacts bool
}

// ArtistFacts are the knowledge-graph facts about an artist. Empty fields
// are unknown.
type ArtistFacts struct {
	ArtistID string
	EntityID string
	// IsBand is nil when the entity is neither a person nor a group.
	IsBand    *bool
	Gender    string
	Country   string
	BirthDate string
	Website   string
	Genres    []string
}

const listSeparator = ";"

func joinList(l []string) string {
	return strings.Join(l, listSeparator)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}
