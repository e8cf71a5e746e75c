package auth

import (
	"context"
	"strings"

	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/labstack/echo/v4"
)

// Context keys for storing user data.
type contextKey string

const (
	ContextKeyUser contextKey = "user"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate resolves the user from the session cookie or a bearer token.
// The user must still exist and be active. Unauthenticated requests get 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		token := requestToken(c)
		if token == "" {
			return errcodes.Unauthenticated("Authentication required")
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			return errcodes.Unauthenticated("Invalid or expired token")
		}

		user, err := m.authService.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return errcodes.Unauthenticated("User not found or inactive")
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.SetRequest(c.Request().WithContext(context.WithValue(ctx, ContextKeyUser, user)))

		return next(c)
	}
}

func requestToken(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// UserFromContext retrieves the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*models.User)
	return user, ok && user != nil
}

// UserFromEchoContext retrieves the authenticated user from the Echo context.
func UserFromEchoContext(c echo.Context) (*models.User, bool) {
	user, ok := c.Get("user").(*models.User)
	return user, ok && user != nil
}

// ContextResolver resolves the acting user from a request context populated by
// Authenticate.
type ContextResolver struct{}

func (ContextResolver) ActorID(ctx context.Context) (int, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}
