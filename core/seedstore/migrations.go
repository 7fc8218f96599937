package seedstore

import (
	"database/sql"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/database"
)

func migrations() []database.Migration {
	return []database.Migration{
		{
			Version:     1,
			Description: "create analyses table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE analyses (
						id            TEXT PRIMARY KEY,
						created_at    TEXT NOT NULL,
						socket_id     INTEGER NOT NULL,
						seed          INTEGER NOT NULL,
						tribute       TEXT NOT NULL,
						radius        REAL NOT NULL,
						total_tribute INTEGER NOT NULL,
						notable_count INTEGER NOT NULL,
						result        TEXT NOT NULL
					);
					CREATE INDEX idx_analyses_created ON analyses(created_at);
					CREATE INDEX idx_analyses_socket_seed ON analyses(socket_id, seed);
				`)
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec(`DROP TABLE analyses`)
				return err
			},
		},
		{
			Version:     2,
			Description: "create seed searches table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE seed_searches (
						id         TEXT PRIMARY KEY,
						created_at TEXT NOT NULL,
						node_id    INTEGER NOT NULL,
						notable    TEXT NOT NULL,
						seed_min   INTEGER NOT NULL,
						seed_max   INTEGER NOT NULL,
						seeds      TEXT NOT NULL
					);
					CREATE INDEX idx_seed_searches_created ON seed_searches(created_at);
				`)
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec(`DROP TABLE seed_searches`)
				return err
			},
		},
	}
}
