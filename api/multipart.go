package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// multipartBody accumulates form fields and files into an in-memory body.
type multipartBody struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func newMultipartBody() *multipartBody {
	m := &multipartBody{}
	m.writer = multipart.NewWriter(&m.buf)
	return m
}

func (m *multipartBody) field(name, value string) {
	if m.err != nil {
		return
	}
	m.err = m.writer.WriteField(name, value)
}

func (m *multipartBody) file(name string, upload *Upload) {
	if m.err != nil || upload == nil || upload.Content == nil {
		return
	}
	part, err := m.writer.CreateFormFile(name, upload.Filename)
	if err != nil {
		m.err = err
		return
	}
	_, m.err = io.Copy(part, upload.Content)
}

// finish closes the writer and returns the body with its content type.
func (m *multipartBody) finish() (io.Reader, string, error) {
	if m.err != nil {
		return nil, "", fmt.Errorf("build multipart body: %w", m.err)
	}
	if err := m.writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &m.buf, m.writer.FormDataContentType(), nil
}
