package errcodes

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Machine-readable codes for the upload pipeline's failure kinds.
const (
	CodeUnauthenticated   = "unauthenticated"
	CodeInvalidFileFormat = "invalid_file_format"
	CodeFileTooLarge      = "file_too_large"
	CodeInvalidMusicXML   = "invalid_music_xml"
	CodeConflict          = "conflict"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// Kind returns the machine-readable code of the first *Error in err's chain,
// or the empty string for internal errors.
func Kind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Unauthenticated is returned when no user identity can be resolved for the
// request.
func Unauthenticated(msg string) error {
	return &Error{
		http.StatusUnauthorized,
		msg,
		CodeUnauthenticated,
	}
}

// InvalidFileFormat is returned for a disallowed file extension or declared
// content type.
func InvalidFileFormat(msg string) error {
	return &Error{
		http.StatusUnsupportedMediaType,
		msg,
		CodeInvalidFileFormat,
	}
}

// FileTooLarge is returned when an upload exceeds limit bytes. The message
// carries the limit in human-readable form.
func FileTooLarge(limit int64) error {
	return &Error{
		http.StatusRequestEntityTooLarge,
		fmt.Sprintf("File exceeds the maximum size of %s.", humanSize(limit)),
		CodeFileTooLarge,
	}
}

// InvalidMusicXML is returned when an upload cannot be read as a MusicXML
// score with usable metadata.
func InvalidMusicXML(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		CodeInvalidMusicXML,
	}
}

// Conflict is returned when the uploaded song is already in the user's
// library.
func Conflict(msg string) error {
	return &Error{
		http.StatusConflict,
		msg,
		CodeConflict,
	}
}

// Forbidden returns a 403 error with a message indicating the action is
// forbidden.
func Forbidden(action string) error {
	return &Error{
		http.StatusForbidden,
		action + " is not allowed.",
		"forbidden",
	}
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		"not_found",
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_error",
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}

func humanSize(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%d MB", n/mib)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/mib)
}
