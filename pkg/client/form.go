package client

import (
	"bytes"
	"io"
	"mime/multipart"
)

// Form accumulates multipart/form-data parts. The visit endpoints take all
// fields as form values even when no file is attached.
type Form struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func NewForm() *Form {
	f := &Form{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

// Field adds a plain form value. Empty values are still sent; the backend
// distinguishes "empty" from "absent".
func (f *Form) Field(name, value string) *Form {
	if f.err == nil {
		f.err = f.writer.WriteField(name, value)
	}
	return f
}

// File attaches file content under the given field name. A nil content slice
// is skipped entirely so optional attachments stay absent.
func (f *Form) File(field, filename string, content []byte) *Form {
	if f.err != nil || content == nil {
		return f
	}
	part, err := f.writer.CreateFormFile(field, filename)
	if err != nil {
		f.err = err
		return f
	}
	_, f.err = part.Write(content)
	return f
}

// Encode finalizes the form and returns the body reader plus its content
// type (with boundary).
func (f *Form) Encode() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.writer.FormDataContentType(), nil
}
