package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SaveTracks inserts or replaces a batch of tracks transactionally.
func (s *Store) SaveTracks(tracks []Track) error {
	return s.inTx(func(tx *sql.Tx, now time.Time) error {
		for _, t := range tracks {
			_, err := tx.Exec(`INSERT OR REPLACE INTO Track
				(id, name, duration_ms, explicit, popularity, track_number, disc_number, album_id, artist_id, artist_ids, fetched)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.Name, t.DurationMs, t.Explicit, t.Popularity, t.TrackNumber, t.DiscNumber,
				t.AlbumID, t.ArtistID, joinList(t.ArtistIDs), now)
			if err != nil {
				return fmt.Errorf("inserting track %q: %w", t.ID, err)
			}
		}
		return nil
	})
}

// SaveAlbums inserts or replaces a batch of albums transactionally.
func (s *Store) SaveAlbums(albums []Album) error {
	return s.inTx(func(tx *sql.Tx, now time.Time) error {
		for _, a := range albums {
			var year sql.NullInt64
			if a.ReleaseYear != 0 {
				year = sql.NullInt64{Int64: int64(a.ReleaseYear), Valid: true}
			}
			_, err := tx.Exec(`INSERT OR REPLACE INTO Album
				(id, name, album_type, total_tracks, release_year, popularity, artist_ids, track_ids, fetched)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				a.ID, a.Name, a.AlbumType, a.TotalTracks, year, a.Popularity,
				joinList(a.ArtistIDs), joinList(a.TrackIDs), now)
			if err != nil {
				return fmt.Errorf("inserting album %q: %w", a.ID, err)
			}
		}
		return nil
	})
}

// SaveArtists inserts or updates a batch of artists transactionally. Facts
// already stored for an artist are kept.
func (s *Store) SaveArtists(artists []Artist) error {
	return s.inTx(func(tx *sql.Tx, now time.Time) error {
		for _, a := range artists {
			_, err := tx.Exec(`INSERT INTO Artist (id, name, followers, genres, popularity, fetched)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
				  name = excluded.name,
				  followers = excluded.followers,
				  genres = excluded.genres,
				  popularity = excluded.popularity,
				  fetched = excluded.fetched`,
				a.ID, a.Name, a.Followers, joinList(a.Genres), a.Popularity, now)
			if err != nil {
				return fmt.Errorf("inserting artist %q: %w", a.ID, err)
			}
		}
		return nil
	})
}

// SaveArtistFacts records knowledge-graph facts for artists already stored.
// Artists without facts are marked as looked up, so they are not queried
// again.
func (s *Store) SaveArtistFacts(facts []ArtistFacts) error {
	return s.inTx(func(tx *sql.Tx, now time.Time) error {
		for _, f := range facts {
			var isBand sql.NullBool
			if f.IsBand != nil {
				isBand = sql.NullBool{Bool: *f.IsBand, Valid: true}
			}
			res, err := tx.Exec(`UPDATE Artist SET
				  wikidata_entity_id = ?, is_band = ?, gender = ?, country = ?,
				  birth_date = ?, website = ?, wikidata_genres = ?, facts_fetched = ?
				WHERE id = ?`,
				f.EntityID, isBand, f.Gender, f.Country, f.BirthDate, f.Website,
				joinList(f.Genres), now, f.ArtistID)
			if err != nil {
				return fmt.Errorf("updating facts of artist %q: %w", f.ArtistID, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("updating facts of artist %q: no such artist", f.ArtistID)
			}
		}
		return nil
	})
}

// SaveResult stores a serialized report table under its name.
func (s *Store) SaveResult(name string, body []byte) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO Result (name, body, created) VALUES (?, ?, ?)",
		name, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving result %q: %w", name, err)
	}
	return nil
}

func (s *Store) inTx(fn func(tx *sql.Tx, now time.Time) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx, time.Now().UTC()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
