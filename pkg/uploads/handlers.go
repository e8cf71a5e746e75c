package uploads

import (
	"io"
	"net/http"

	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	orchestrator *Orchestrator
}

// upload accepts a MusicXML document and adds it to the user's library. It
// responds 201 when the song is new to the catalog and 200 when an existing
// song was added.
func (h *handler) upload(c echo.Context) error {
	ctx := c.Request().Context()

	params := UploadPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	header, ok := params.FormFiles[uploadFormField]
	if !ok {
		return errcodes.ValidationError(`"file" is required`)
	}

	// Reject by declared size before reading anything.
	if _, err := checkExtension(header.Filename); err != nil {
		return err
	}
	if err := checkSize(header.Size); err != nil {
		return err
	}

	f, err := header.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return errors.WithStack(err)
	}

	contentType := header.Header.Get(echo.HeaderContentType)
	if ct := NormalizeContentType(contentType); ct == "" || ct == echo.MIMEOctetStream {
		contentType = mimetype.Detect(data).String()
	}

	result, err := h.orchestrator.Upload(ctx, &RawUpload{
		Data:        data,
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: contentType,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusCreated
	if result.WasAlreadyKnown {
		status = http.StatusOK
	}
	return errors.WithStack(c.JSON(status, result))
}
