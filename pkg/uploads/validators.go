package uploads

import "mime/multipart"

// UploadPayload is the multipart upload form. The document is sent in the
// "file" field.
type UploadPayload struct {
	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}

const uploadFormField = "file"
