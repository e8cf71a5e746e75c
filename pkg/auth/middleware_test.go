package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(db)
	middleware := NewMiddleware(svc)

	user, err := svc.Register(ctx, "alice", nil, "correcthorse")
	require.NoError(t, err)
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	var (
		seenUser  *models.User
		seenActor int
	)
	next := func(c echo.Context) error {
		seenUser, _ = UserFromEchoContext(c)
		seenActor, _ = ContextResolver{}.ActorID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}

	tests := []struct {
		name    string
		prepare func(req *http.Request)
		wantErr bool
	}{
		{
			name: "cookie",
			prepare: func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			},
		},
		{
			name: "bearer token",
			prepare: func(req *http.Request) {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
			},
		},
		{
			name:    "missing",
			prepare: func(*http.Request) {},
			wantErr: true,
		},
		{
			name: "garbage token",
			prepare: func(req *http.Request) {
				req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-jwt")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUser, seenActor = nil, 0

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/library", nil)
			tt.prepare(req)
			c := e.NewContext(req, httptest.NewRecorder())

			err := middleware.Authenticate(next)(c)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errcodes.CodeUnauthenticated, errcodes.Kind(err))
				assert.Nil(t, seenUser)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, seenUser)
			assert.Equal(t, user.ID, seenUser.ID)
			assert.Equal(t, user.ID, seenActor)
		})
	}
}

func TestMiddlewareAuthenticate_InactiveUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(db)

	user, err := svc.Register(ctx, "alice", nil, "correcthorse")
	require.NoError(t, err)
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	_, err = db.NewUpdate().Model((*models.User)(nil)).Set("is_active = ?", false).Where("id = ?", user.ID).Exec(ctx)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/library", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	c := e.NewContext(req, httptest.NewRecorder())

	err = NewMiddleware(svc).Authenticate(func(echo.Context) error { return nil })(c)
	require.Error(t, err)
	assert.Equal(t, errcodes.CodeUnauthenticated, errcodes.Kind(err))
}

func TestContextResolver_NoUser(t *testing.T) {
	t.Parallel()

	_, ok := ContextResolver{}.ActorID(context.Background())
	assert.False(t, ok)
}
