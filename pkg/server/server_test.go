package server

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Seg0r/MuShee-sub000/internal/testgen"
	"github.com/Seg0r/MuShee-sub000/pkg/auth"
	"github.com/Seg0r/MuShee-sub000/pkg/blobstore"
	"github.com/Seg0r/MuShee-sub000/pkg/config"
	"github.com/Seg0r/MuShee-sub000/pkg/migrations"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return setupTestServerWithConfig(t, &config.Config{JWTSecret: "test-jwt-secret"})
}

func setupTestServerWithConfig(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	blobs, err := blobstore.NewFilesystem(t.TempDir())
	require.NoError(t, err)

	srv, err := New(cfg, db, blobs)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		db.Close()
	})
	return ts
}

func register(t *testing.T, ts *httptest.Server, username string) *http.Cookie {
	t.Helper()

	body := `{"username":"` + username + `","password":"correcthorse"}`
	resp, err := http.Post(ts.URL+"/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func upload(t *testing.T, ts *httptest.Server, session *http.Cookie, filename string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/songs/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if session != nil {
		req.AddCookie(session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, ts *httptest.Server, session *http.Cookie, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if session != nil {
		req.AddCookie(session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, v), string(b))
}

func TestServer_UploadFlow(t *testing.T) {
	ts := setupTestServer(t)
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")

	score := testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Clair de Lune", Composer: "Claude Debussy"})

	resp := upload(t, ts, alice, "clair.musicxml", score)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		SongID          string `json:"song_id"`
		WasAlreadyKnown bool   `json:"was_already_known"`
	}
	decode(t, resp, &created)
	assert.False(t, created.WasAlreadyKnown)

	resp = upload(t, ts, alice, "clair.musicxml", score)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = upload(t, ts, bob, "clair.mxl", testgen.MXL(t, testgen.MXLOptions{Score: score}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var attached struct {
		SongID          string `json:"song_id"`
		WasAlreadyKnown bool   `json:"was_already_known"`
	}
	decode(t, resp, &attached)
	assert.True(t, attached.WasAlreadyKnown)
	assert.Equal(t, created.SongID, attached.SongID)

	resp = get(t, ts, bob, "/library")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var library struct {
		Songs []struct {
			Song struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			} `json:"song"`
		} `json:"songs"`
		Total int `json:"total"`
	}
	decode(t, resp, &library)
	require.Equal(t, 1, library.Total)
	assert.Equal(t, "Clair de Lune", library.Songs[0].Song.Title)

	resp = get(t, ts, bob, "/songs/"+created.SongID+"/file")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, score, b)
}

func TestServer_Errors(t *testing.T) {
	ts := setupTestServer(t)
	alice := register(t, ts, "alice")

	tests := []struct {
		name     string
		do       func() *http.Response
		wantCode int
		wantKind string
	}{
		{
			name: "upload without session",
			do: func() *http.Response {
				return upload(t, ts, nil, "score.xml", testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Prelude"}))
			},
			wantCode: http.StatusUnauthorized,
			wantKind: "unauthenticated",
		},
		{
			name: "wrong extension",
			do: func() *http.Response {
				return upload(t, ts, alice, "score.pdf", []byte("%PDF-1.4"))
			},
			wantCode: http.StatusUnsupportedMediaType,
			wantKind: "invalid_file_format",
		},
		{
			name: "not a score",
			do: func() *http.Response {
				return upload(t, ts, alice, "score.xml", []byte(`<?xml version="1.0" encoding="UTF-8"?><note><to>Tove</to></note>`))
			},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "invalid_music_xml",
		},
		{
			name: "unknown route",
			do: func() *http.Response {
				return get(t, ts, alice, "/nope")
			},
			wantCode: http.StatusNotFound,
			wantKind: "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.do()
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			decode(t, resp, &payload)
			assert.Equal(t, tt.wantKind, payload.Error.Code)
		})
	}
}

func TestServer_TestRoutes(t *testing.T) {
	ts := setupTestServer(t)
	resp, err := http.Post(ts.URL+"/test/users", "application/json", strings.NewReader(`{"username":"e2e","password":"correcthorse"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ts = setupTestServerWithConfig(t, &config.Config{JWTSecret: "test-jwt-secret", Environment: config.EnvironmentTest})
	resp, err = http.Post(ts.URL+"/test/users", "application/json", strings.NewReader(`{"username":"e2e","password":"correcthorse"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	loginResp, err := http.Post(ts.URL+"/auth/login", "application/json", strings.NewReader(`{"username":"e2e","password":"correcthorse"}`))
	require.NoError(t, err)
	loginResp.Body.Close()
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	var session *http.Cookie
	for _, cookie := range loginResp.Cookies() {
		if cookie.Name == auth.CookieName {
			session = cookie
		}
	}
	require.NotNil(t, session)
	up := upload(t, ts, session, "prelude.xml", testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Prelude", Composer: "Bach"}))
	require.Equal(t, http.StatusCreated, up.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/test/catalog", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reset struct {
		Users int `json:"users"`
		Songs int `json:"songs"`
	}
	decode(t, resp, &reset)
	resp.Body.Close()
	assert.Equal(t, 1, reset.Users)
	assert.Equal(t, 1, reset.Songs)
}
