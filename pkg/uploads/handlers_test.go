package uploads

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/Seg0r/MuShee-sub000/pkg/binder"
	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadContext(t *testing.T, user *models.User, filename, contentType string, data []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	fw, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(http.MethodPost, "/songs/upload", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	if user != nil {
		req = req.WithContext(asUser(user))
	}
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	if user != nil {
		c.Set("user", user)
	}
	return c, rr
}

func TestHandler_Upload(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")
	h := &handler{orchestrator: f.orchestrator}

	c, rr := newUploadContext(t, alice, "moonlight.musicxml", "application/vnd.recordare.musicxml+xml", moonlight())
	require.NoError(t, h.upload(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var created Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.False(t, created.WasAlreadyKnown)
	assert.Equal(t, "Moonlight Sonata", created.Metadata.Title)

	c, rr = newUploadContext(t, bob, "moonlight.xml", "text/xml", moonlight())
	require.NoError(t, h.upload(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var attached Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &attached))
	assert.True(t, attached.WasAlreadyKnown)
	assert.Equal(t, created.SongID, attached.SongID)
}

func TestHandler_Upload_SniffsGenericContentType(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := createUser(t, f.db, "alice")
	h := &handler{orchestrator: f.orchestrator}

	c, rr := newUploadContext(t, alice, "moonlight.xml", "application/octet-stream", moonlight())
	require.NoError(t, h.upload(c))
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestHandler_Upload_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := createUser(t, f.db, "alice")
	h := &handler{orchestrator: f.orchestrator}

	tests := []struct {
		name        string
		user        *models.User
		filename    string
		contentType string
		data        []byte
		status      int
		code        string
	}{
		{"unauthenticated", nil, "song.xml", "text/xml", moonlight(), http.StatusUnauthorized, errcodes.CodeUnauthenticated},
		{"wrong extension", alice, "song.pdf", "application/pdf", []byte("%PDF-1.4"), http.StatusUnsupportedMediaType, errcodes.CodeInvalidFileFormat},
		{"plain text", alice, "song.xml", "text/plain", []byte("just words"), http.StatusUnsupportedMediaType, errcodes.CodeInvalidFileFormat},
		{"not music", alice, "song.xml", "application/xml", []byte("<?xml version=\"1.0\"?><note/>"), http.StatusUnprocessableEntity, errcodes.CodeInvalidMusicXML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newUploadContext(t, tt.user, tt.filename, tt.contentType, tt.data)
			err := h.upload(c)
			require.Error(t, err)

			status, payload := errcodes.Payload(err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, payload["error"].(map[string]interface{})["code"])
		})
	}
}

func TestHandler_Upload_MissingFile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := createUser(t, f.db, "alice")
	h := &handler{orchestrator: f.orchestrator}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b

	req := httptest.NewRequest(http.MethodPost, "/songs/upload", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req = req.WithContext(asUser(alice))
	c := e.NewContext(req, httptest.NewRecorder())

	err = h.upload(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"file" is required`)
}
