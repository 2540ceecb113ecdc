package store

import (
	"database/sql"
	"fmt"
)

// MissingTrackIDs returns the ids that have no cached track, in input order
// and without duplicates.
func (s *Store) MissingTrackIDs(ids []string) ([]string, error) {
	return s.missing("SELECT id FROM Track", ids)
}

func (s *Store) MissingAlbumIDs(ids []string) ([]string, error) {
	return s.missing("SELECT id FROM Album", ids)
}

func (s *Store) MissingArtistIDs(ids []string) ([]string, error) {
	return s.missing("SELECT id FROM Artist", ids)
}

// ArtistsWithoutFacts returns cached artists whose facts were never looked up.
func (s *Store) ArtistsWithoutFacts() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM Artist WHERE facts_fetched IS NULL ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying artists without facts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning artist id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) missing(query string, ids []string) ([]string, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying cached ids: %w", err)
	}
	defer rows.Close()

	cached := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		cached[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []string
	for _, id := range ids {
		if id == "" || cached[id] {
			continue
		}
		cached[id] = true
		out = append(out, id)
	}
	return out, nil
}

// Tracks returns every cached track by id.
func (s *Store) Tracks() (map[string]Track, error) {
	rows, err := s.db.Query(`SELECT id, name, duration_ms, explicit, popularity, track_number,
		disc_number, album_id, artist_id, artist_ids FROM Track`)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	tracks := make(map[string]Track)
	for rows.Next() {
		var t Track
		var artistIDs string
		if err := rows.Scan(&t.ID, &t.Name, &t.DurationMs, &t.Explicit, &t.Popularity, &t.TrackNumber,
			&t.DiscNumber, &t.AlbumID, &t.ArtistID, &artistIDs); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		t.ArtistIDs = splitList(artistIDs)
		tracks[t.ID] = t
	}
	return tracks, rows.Err()
}

// Albums returns every cached album by id.
func (s *Store) Albums() (map[string]Album, error) {
	rows, err := s.db.Query(`SELECT id, name, album_type, total_tracks, release_year,
		popularity, artist_ids, track_ids FROM Album`)
	if err != nil {
		return nil, fmt.Errorf("querying albums: %w", err)
	}
	defer rows.Close()

	albums := make(map[string]Album)
	for rows.Next() {
		var a Album
		var year sql.NullInt64
		var artistIDs, trackIDs string
		if err := rows.Scan(&a.ID, &a.Name, &a.AlbumType, &a.TotalTracks, &year,
			&a.Popularity, &artistIDs, &trackIDs); err != nil {
			return nil, fmt.Errorf("scanning album: %w", err)
		}
		a.ReleaseYear = int(year.Int64)
		a.ArtistIDs = splitList(artistIDs)
		a.TrackIDs = splitList(trackIDs)
		albums[a.ID] = a
	}
	return albums, rows.Err()
}

// Artists returns every cached artist by id, with facts where known.
func (s *Store) Artists() (map[string]Artist, error) {
	rows, err := s.db.Query(`SELECT id, name, followers, genres, popularity,
		wikidata_entity_id, is_band, gender, country, birth_date, website, wikidata_genres, facts_fetched
		FROM Artist`)
	if err != nil {
		return nil, fmt.Errorf("querying artists: %w", err)
	}
	defer rows.Close()

	artists := make(map[string]Artist)
	for rows.Next() {
		var a Artist
		var genres string
		var entityID, gender, country, birthDate, website, factGenres sql.NullString
		var isBand sql.NullBool
		var factsFetched sql.NullTime
		if err := rows.Scan(&a.ID, &a.Name, &a.Followers, &genres, &a.Popularity,
			&entityID, &isBand, &gender, &country, &birthDate, &website, &factGenres, &factsFetched); err != nil {
			return nil, fmt.Errorf("scanning artist: %w", err)
		}
		a.Genres = splitList(genres)
		if factsFetched.Valid {
			a.HasFacts = true
			a.Facts = ArtistFacts{
				ArtistID:  a.ID,
				EntityID:  entityID.String,
				Gender:    gender.String,
				Country:   country.String,
				BirthDate: birthDate.String,
				Website:   website.String,
				Genres:    splitList(factGenres.String),
			}
			if isBand.Valid {
				b := isBand.Bool
				a.Facts.IsBand = &b
			}
		}
		artists[a.ID] = a
	}
	return artists, rows.Err()
}

// Result returns a stored report table, or nil when there is none.
func (s *Store) Result(name string) ([]byte, error) {
	row := s.db.QueryRow("SELECT body FROM Result WHERE name = ?", name)
	var body string
	err := row.Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting result %q: %w", name, err)
	}
	return []byte(body), nil
}
