package geocode

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Cache is a sqlite-backed store of resolved place names keyed by rounded
// coordinates.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS places (
		coords TEXT PRIMARY KEY,
		place TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached place for a coordinate key.
func (c *Cache) Get(key string) (string, bool, error) {
	var place string
	err := c.db.QueryRow(`SELECT place FROM places WHERE coords = ?`, key).Scan(&place)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query: %w", err)
	}
	return place, true, nil
}

// Put stores or replaces a place for a coordinate key.
func (c *Cache) Put(key string, place string) error {
	_, err := c.db.Exec(`INSERT INTO places (coords, place) VALUES (?, ?)
		ON CONFLICT(coords) DO UPDATE SET place = excluded.place`, key, place)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}
