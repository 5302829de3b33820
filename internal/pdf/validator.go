// Package pdf extracts text and page images from brochure PDFs.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
)

const largeFileBytes = 100 * 1024 * 1024

// Validator provides input validation for PDF files
type Validator struct {
	logger *observability.Logger
}

// NewValidator creates a new validator instance
func NewValidator(logger *observability.Logger) *Validator {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Validator{logger: logger}
}

// ValidatePDFPath validates that a file path is valid and points to a PDF
func (v *Validator) ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.InvalidInputError("file path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewError(domain.ErrorTypeNotFound, fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.IOError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.InvalidInputError(fmt.Sprintf("path is a directory, not a file: %s", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return domain.InvalidInputError(fmt.Sprintf("file is not a PDF (has extension %q)", ext))
	}

	if info.Size() > largeFileBytes {
		v.logger.Warn().Str("path", path).Int64("size_mb", info.Size()/(1024*1024)).Msg("pdf.large_file")
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.ExtractionError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	file.Close()

	return nil
}
