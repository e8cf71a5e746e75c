package testutils

import (
	"context"
	"net/http"
	"time"

	"github.com/Seg0r/MuShee-sub000/pkg/auth"
	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Email    *string `json:"email"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// createUser creates an active test user.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}

	_, err = h.db.NewInsert().Model(user).Returning("*").Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return c.JSON(http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
	})
}

// resetCatalogResponse is the response body for resetting the catalog.
type resetCatalogResponse struct {
	Users int `json:"users"`
	Songs int `json:"songs"`
}

// resetCatalog deletes every library entry, song and user. Stored documents
// are kept and get reused by later uploads of the same score.
// DELETE /test/catalog.
func (h *handler) resetCatalog(c echo.Context) error {
	ctx := c.Request().Context()

	resp := resetCatalogResponse{}
	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.UserSong)(nil)).
			Where("1=1").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to delete library entries")
		}

		result, err := tx.NewDelete().
			Model((*models.Song)(nil)).
			Where("1=1").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to delete songs")
		}
		songs, _ := result.RowsAffected()
		resp.Songs = int(songs)

		result, err = tx.NewDelete().
			Model((*models.User)(nil)).
			Where("1=1").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to delete users")
		}
		users, _ := result.RowsAffected()
		resp.Users = int(users)

		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
