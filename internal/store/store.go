package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store caches catalog metadata and computed report tables in SQLite.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS Track (
  id TEXT PRIMARY KEY,
  name TEXT,
  duration_ms INTEGER,
  explicit INTEGER,
  popularity INTEGER,
  track_number INTEGER,
  disc_number INTEGER,
  album_id TEXT,
  artist_id TEXT,
  artist_ids TEXT,
  fetched DATETIME
);

CREATE TABLE IF NOT EXISTS Album (
  id TEXT PRIMARY KEY,
  name TEXT,
  album_type TEXT,
  total_tracks INTEGER,
  release_year INTEGER,
  popularity INTEGER,
  artist_ids TEXT,
  track_ids TEXT,
  fetched DATETIME
);

CREATE TABLE IF NOT EXISTS Artist (
  id TEXT PRIMARY KEY,
  name TEXT,
  followers INTEGER,
  genres TEXT,
  popularity INTEGER,
  fetched DATETIME
);

CREATE TABLE IF NOT EXISTS Result (
  name TEXT PRIMARY KEY,
  body TEXT,
  created DATETIME
);
`

// Knowledge-graph facts were added to Artist after the first release.
var artistFactColumns = []struct{ name, typeDef string }{
	{"wikidata_entity_id", "TEXT"},
	{"is_band", "INTEGER"},
	{"gender", "TEXT"},
	{"country", "TEXT"},
	{"birth_date", "TEXT"},
	{"website", "TEXT"},
	{"wikidata_genres", "TEXT"},
	{"facts_fetched", "DATETIME"},
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	for _, c := range artistFactColumns {
		if err := addColumnIfNotExists(db, "Artist", c.name, c.typeDef); err != nil {
			return err
		}
	}
	return nil
}

func addColumnIfNotExists(db *sql.DB, table, column, typeDef string) error {
	exists, err := columnExists(db, table, column)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if !exists {
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typeDef)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("adding column %s.%s: %w", table, column, err)
		}
	}
	return nil
}

func columnExists(db *sql.DB, tableName string, columnName string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var ctype string
		var notnull int
		var dfltValue any
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return true, nil
		}
	}
	return false, rows.Err()
}
