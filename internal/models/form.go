package models

import (
	"encoding/base64"
	"fmt"
)

// FormMode selects whether a form creates or edits a record.
type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

// FormDraft is transient form state. It is never persisted.
type FormDraft struct {
	Values   map[string]interface{} `json:"values"`
	Touched  map[string]bool        `json:"touched"`
	Errors   map[string]string      `json:"errors"`
	Previews map[string]string      `json:"previews,omitempty"`
}

func NewFormDraft(values map[string]interface{}) *FormDraft {
	if values == nil {
		values = make(map[string]interface{})
	}
	return &FormDraft{
		Values:   values,
		Touched:  make(map[string]bool),
		Errors:   make(map[string]string),
		Previews: make(map[string]string),
	}
}

// FileUpload is a binary field value such as an image.
type FileUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

func (f *FileUpload) FileName() string {
	if f == nil {
		return ""
	}
	return f.Name
}

// DataURL renders the file as a data URL preview.
func (f *FileUpload) DataURL() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", f.ContentType, base64.StdEncoding.EncodeToString(f.Data))
}
