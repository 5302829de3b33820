package ocr

import (
	"context"
	"os"
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// TesseractEngine shells out to the tesseract CLI.
type TesseractEngine struct {
	Binary    string
	Languages string
	Runner    Runner
	TempDir   string
}

// NewTesseractEngine returns an engine for binary (default "tesseract") and
// tesseract language codes such as "eng+hin".
func NewTesseractEngine(binary, languages string, runner Runner) *TesseractEngine {
	if binary == "" {
		binary = "tesseract"
	}
	if languages == "" {
		languages = "eng"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &TesseractEngine{Binary: binary, Languages: languages, Runner: runner}
}

func (t *TesseractEngine) Name() string { return "tesseract" }

// OCR writes the image to a temp file and reads tesseract's stdout.
func (t *TesseractEngine) OCR(ctx context.Context, image []byte) (string, error) {
	f, err := os.CreateTemp(t.TempDir, "ocr-*.img")
	if err != nil {
		return "", domain.IOError("failed to create temp image", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(image); err != nil {
		f.Close()
		return "", domain.IOError("failed to write temp image", err)
	}
	if err := f.Close(); err != nil {
		return "", domain.IOError("failed to write temp image", err)
	}

	stdout, stderr, err := t.Runner.Run(ctx, t.Binary, f.Name(), "stdout", "-l", t.Languages)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = "tesseract failed"
		}
		return "", domain.ExtractionError(msg, err)
	}
	return string(stdout), nil
}
