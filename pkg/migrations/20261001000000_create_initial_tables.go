package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL,
				email TEXT,
				password_hash TEXT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_username ON users (username COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`
			CREATE TABLE songs (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				composer TEXT NOT NULL,
				subtitle TEXT,
				fingerprint TEXT NOT NULL,
				uploader_id INTEGER REFERENCES users (id) ON DELETE SET NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// The fingerprint is the deduplication key; concurrent first uploads
		// of the same document are settled by this constraint.
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_songs_fingerprint ON songs (fingerprint)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_songs_uploader_id ON songs (uploader_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`
			CREATE TABLE user_songs (
				user_id INTEGER REFERENCES users (id) ON DELETE CASCADE NOT NULL,
				song_id TEXT REFERENCES songs (id) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (user_id, song_id)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_user_songs_song_id ON user_songs (song_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_user_songs_user_id_created_at ON user_songs (user_id, created_at)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"user_songs", "songs", "users"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
