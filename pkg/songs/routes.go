package songs

import (
	"github.com/Seg0r/MuShee-sub000/pkg/auth"
	"github.com/Seg0r/MuShee-sub000/pkg/blobstore"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the song and library routes. All of them require
// an authenticated user.
func RegisterRoutes(e *echo.Echo, db *bun.DB, blobs blobstore.Store, authMiddleware *auth.Middleware) {
	h := &handler{
		songService: NewService(db),
		blobs:       blobs,
	}

	songsGroup := e.Group("/songs")
	songsGroup.Use(authMiddleware.Authenticate)
	songsGroup.GET("/:id", h.retrieve)
	songsGroup.GET("/:id/file", h.file)

	libraryGroup := e.Group("/library")
	libraryGroup.Use(authMiddleware.Authenticate)
	libraryGroup.GET("", h.list)
	libraryGroup.DELETE("/:songId", h.remove)
}
