package uploads

import (
	"testing"

	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		filename    string
		size        int64
		contentType string
		wantKind    string
	}{
		{"musicxml with xml type", "song.musicxml", 1000, "application/xml", ""},
		{"uppercase extension", "SONG.XML", 1000, "text/xml", ""},
		{"musicxml vendor type", "song.musicxml", 1000, "application/vnd.recordare.musicxml+xml", ""},
		{"type with charset", "song.xml", 1000, "Text/XML; charset=utf-8", ""},
		{"compressed with zip type", "song.mxl", 1000, "application/zip", ""},
		{"compressed with no type", "song.mxl", 1000, "", ""},
		{"pdf", "song.pdf", 1000, "application/pdf", errcodes.CodeInvalidFileFormat},
		{"no extension", "song", 1000, "application/xml", errcodes.CodeInvalidFileFormat},
		{"xml extension with wrong type", "song.xml", 1000, "text/plain", errcodes.CodeInvalidFileFormat},
		{"exactly the limit", "song.musicxml", 10 * 1024 * 1024, "application/xml", ""},
		{"one byte over the limit", "song.musicxml", 10*1024*1024 + 1, "application/xml", errcodes.CodeFileTooLarge},
		{"extension checked before size", "song.pdf", 10*1024*1024 + 1, "application/pdf", errcodes.CodeInvalidFileFormat},
		{"size checked before type", "song.xml", 10*1024*1024 + 1, "text/plain", errcodes.CodeFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filename, tt.size, tt.contentType)
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, tt.wantKind, errcodes.Kind(err))
		})
	}
}

func TestValidate_TooLargeMessageIncludesLimit(t *testing.T) {
	t.Parallel()

	err := Validate("song.xml", MaxUploadSize+1, "application/xml")
	assert.EqualError(t, err, "File exceeds the maximum size of 10 MB.")
}

func TestNormalizeContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/xml", NormalizeContentType("Application/XML; charset=UTF-8"))
	assert.Equal(t, "", NormalizeContentType(""))
	assert.Equal(t, "text/xml", NormalizeContentType(" text/xml ;"))
}
