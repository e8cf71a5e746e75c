package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SongFileExtension is appended to a song's fingerprint to form the key of
// its stored MusicXML document.
const SongFileExtension = ".musicxml"

// Song is a catalog entry: one record per unique MusicXML document, shared by
// every user who has it in their library.
type Song struct {
	bun.BaseModel `bun:"table:songs,alias:s" tstype:"-"`

	ID          string    `bun:",pk" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `json:"title"`
	Composer    string    `json:"composer"`
	Subtitle    *string   `json:"subtitle"`
	Fingerprint string    `bun:",notnull" json:"fingerprint"`
	// UploaderID is nil for publicly seeded songs.
	UploaderID *int `json:"uploader_id"`
}

// BlobKey returns the object store key holding the song's MusicXML document.
func (s *Song) BlobKey() string {
	return s.Fingerprint + SongFileExtension
}

// IsPublic reports whether the song was seeded rather than uploaded.
func (s *Song) IsPublic() bool {
	return s.UploaderID == nil
}
