package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserSong links a user to a song in their library. A user can hold a given
// song at most once.
type UserSong struct {
	bun.BaseModel `bun:"table:user_songs,alias:us" tstype:"-"`

	UserID    int       `bun:",pk" json:"user_id"`
	SongID    string    `bun:",pk" json:"song_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Song *Song `bun:"rel:belongs-to,join:song_id=id" json:"song,omitempty" tstype:"Song"`
}
