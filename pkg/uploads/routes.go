package uploads

import (
	"github.com/Seg0r/MuShee-sub000/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes registers the upload endpoint behind authentication.
func RegisterRoutes(e *echo.Echo, orchestrator *Orchestrator, authMiddleware *auth.Middleware) {
	h := &handler{
		orchestrator: orchestrator,
	}

	// Leave headroom over MaxUploadSize for the multipart envelope.
	e.POST("/songs/upload", h.upload, middleware.BodyLimit("11M"), authMiddleware.Authenticate)
}
