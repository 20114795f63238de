package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"

	"casting-admin/internal/models"
)

// Payload is a request body. Any file switches the encoding to multipart.
type Payload struct {
	Values map[string]interface{}
	Files  map[string]*models.FileUpload
	// Multipart forces form-data even without a file part.
	Multipart bool
}

func JSONPayload(values map[string]interface{}) Payload {
	return Payload{Values: values}
}

// IsMultipart reports whether the payload carries a binary part.
func (p Payload) IsMultipart() bool {
	if p.Multipart {
		return true
	}
	for _, f := range p.Files {
		if f != nil {
			return true
		}
	}
	return false
}

// Encode returns the body and its content type.
func (p Payload) Encode() (io.Reader, string, error) {
	if !p.IsMultipart() {
		values := p.Values
		if values == nil {
			values = map[string]interface{}{}
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode json payload: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, key := range sortedKeys(p.Values) {
		v := p.Values[key]
		if v == nil {
			continue
		}
		if err := w.WriteField(key, models.ToString(v)); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	fileKeys := make([]string, 0, len(p.Files))
	for k, f := range p.Files {
		if f != nil {
			fileKeys = append(fileKeys, k)
		}
	}
	sort.Strings(fileKeys)

	for _, key := range fileKeys {
		f := p.Files[key]
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, key, f.Name))
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %s: %w", key, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write part %s: %w", key, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
