package uploads

import (
	"mime"
	"path"
	"strings"

	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
)

// MaxUploadSize is the largest accepted upload, in bytes.
const MaxUploadSize int64 = 10 * 1024 * 1024

const (
	ExtXML        = ".xml"
	ExtMusicXML   = ".musicxml"
	ExtCompressed = ".mxl"
)

var allowedExtensions = []string{ExtXML, ExtMusicXML, ExtCompressed}

var allowedContentTypes = map[string]bool{
	"application/xml":                        true,
	"text/xml":                               true,
	"application/vnd.recordare.musicxml+xml": true,
	"application/vnd.recordare.musicxml":     true,
}

// Validate runs the cheap checks on an upload's declared properties, in
// order: extension, size, then content type. Compressed containers skip the
// content type check since clients report them under all sorts of generic
// archive types.
func Validate(filename string, size int64, contentType string) error {
	ext, err := checkExtension(filename)
	if err != nil {
		return err
	}
	if err := checkSize(size); err != nil {
		return err
	}
	if ext == ExtCompressed {
		return nil
	}
	return checkContentType(contentType)
}

func checkExtension(filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", errcodes.InvalidFileFormat("Only .xml, .musicxml and .mxl files are supported.")
}

func checkSize(size int64) error {
	if size > MaxUploadSize {
		return errcodes.FileTooLarge(MaxUploadSize)
	}
	return nil
}

func checkContentType(contentType string) error {
	if !allowedContentTypes[NormalizeContentType(contentType)] {
		return errcodes.InvalidFileFormat("Only MusicXML files are supported.")
	}
	return nil
}

// NormalizeContentType lower-cases a content type and drops its parameters.
func NormalizeContentType(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
