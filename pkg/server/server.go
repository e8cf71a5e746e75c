package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Seg0r/MuShee-sub000/pkg/auth"
	"github.com/Seg0r/MuShee-sub000/pkg/binder"
	"github.com/Seg0r/MuShee-sub000/pkg/blobstore"
	"github.com/Seg0r/MuShee-sub000/pkg/config"
	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/Seg0r/MuShee-sub000/pkg/musicxml"
	"github.com/Seg0r/MuShee-sub000/pkg/songs"
	"github.com/Seg0r/MuShee-sub000/pkg/testutils"
	"github.com/Seg0r/MuShee-sub000/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, blobs blobstore.Store) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authMiddleware := auth.RegisterRoutes(e, db, cfg.JWTSecret)

	songs.RegisterRoutes(e, db, blobs, authMiddleware)

	orchestrator := uploads.NewOrchestrator(
		songs.NewService(db),
		blobs,
		auth.ContextResolver{},
		musicxml.NewExtractor(cfg.MetadataParseTimeout),
	)
	uploads.RegisterRoutes(e, orchestrator, authMiddleware)

	if cfg.Environment == config.EnvironmentTest {
		testutils.RegisterRoutes(e, db)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
