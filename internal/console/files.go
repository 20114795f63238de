package console

import (
	"fmt"
	"os"
	"path/filepath"

	"casting-admin/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize bounds files attached to a form.
const MaxUploadSize = 10 << 20

// ReadUpload loads a file for a form field and sniffs its content type.
func ReadUpload(path string) (*models.FileUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxUploadSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, MaxUploadSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &models.FileUpload{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}
