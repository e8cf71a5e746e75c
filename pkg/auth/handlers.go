package auth

import (
	"net/http"
	"time"

	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "mushee_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = 7 * 24 * time.Hour // 7 days
)

type handler struct {
	authService *Service
}

func buildMeResponse(user *models.User) MeResponse {
	return MeResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

func sessionCookie(c echo.Context, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *handler) startSession(c echo.Context, user *models.User, status int) error {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	c.SetCookie(sessionCookie(c, token, int(CookieMaxAge.Seconds())))
	return errors.WithStack(c.JSON(status, buildMeResponse(user)))
}

// register creates an account and signs the new user in.
func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()

	params := RegisterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Register(ctx, params.Username, params.Email, params.Password)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("user registered", logger.Data{"user_id": user.ID})

	return h.startSession(c, user, http.StatusCreated)
}

// login handles user login.
func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	return h.startSession(c, user, http.StatusOK)
}

// logout clears the session cookie.
func (h *handler) logout(c echo.Context) error {
	c.SetCookie(sessionCookie(c, "", -1))
	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"}))
}

// me returns the current authenticated user's info.
func (h *handler) me(c echo.Context) error {
	user, ok := UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthenticated("Authentication required")
	}
	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(user)))
}
