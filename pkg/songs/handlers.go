package songs

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/Seg0r/MuShee-sub000/pkg/auth"
	"github.com/Seg0r/MuShee-sub000/pkg/blobstore"
	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const musicXMLContentType = "application/vnd.recordare.musicxml+xml"

type handler struct {
	songService *Service
	blobs       blobstore.Store
}

func newSongResponse(song *models.Song) *SongResponse {
	return &SongResponse{
		ID:          song.ID,
		Title:       song.Title,
		Composer:    song.Composer,
		Subtitle:    song.Subtitle,
		Fingerprint: song.Fingerprint,
		IsPublic:    song.IsPublic(),
		CreatedAt:   song.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// visibleSong loads a song the current user may see: public songs and songs
// in their library. Anything else is reported as missing.
func (h *handler) visibleSong(c echo.Context) (*models.Song, error) {
	ctx := c.Request().Context()
	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return nil, errcodes.Unauthenticated("Authentication required")
	}

	id := c.Param("id")
	song, err := h.songService.RetrieveSong(ctx, RetrieveSongOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if song.IsPublic() {
		return song, nil
	}

	member, err := h.songService.MembershipExists(ctx, user.ID, song.ID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !member {
		return nil, errcodes.NotFound("Song")
	}
	return song, nil
}

func (h *handler) retrieve(c echo.Context) error {
	song, err := h.visibleSong(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, newSongResponse(song)))
}

func (h *handler) file(c echo.Context) error {
	song, err := h.visibleSong(c)
	if err != nil {
		return err
	}

	rc, err := h.blobs.Get(c.Request().Context(), song.BlobKey())
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return errcodes.NotFound("Song file")
		}
		return errors.WithStack(err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{
		"filename": downloadFilename(song),
	}))
	return errors.WithStack(c.Stream(http.StatusOK, musicXMLContentType, rc))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthenticated("Authentication required")
	}

	params := ListLibraryQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	memberships, total, err := h.songService.ListLibrary(ctx, ListLibraryOptions{
		UserID: user.ID,
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	entries := make([]*LibraryEntry, 0, len(memberships))
	for _, m := range memberships {
		entries = append(entries, &LibraryEntry{
			Song:     newSongResponse(m.Song),
			JoinedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	resp := struct {
		Songs []*LibraryEntry `json:"songs"`
		Total int             `json:"total"`
	}{entries, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) remove(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthenticated("Authentication required")
	}

	err := h.songService.RemoveFromLibrary(ctx, user.ID, c.Param("songId"))
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func downloadFilename(song *models.Song) string {
	name := strings.TrimSpace(song.Title)
	if song.Composer != "" {
		if name == "" {
			name = song.Composer
		} else {
			name = song.Composer + " - " + name
		}
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = song.Fingerprint
	}
	return name + models.SongFileExtension
}
