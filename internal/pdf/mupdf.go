package pdf

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// EngineMuPDF is the registry name of the MuPDF engine.
const EngineMuPDF = "mupdf"

// MuPDFEngine reads PDFs through go-fitz.
type MuPDFEngine struct{}

// Name returns the registry name.
func (MuPDFEngine) Name() string { return EngineMuPDF }

// ExtractText returns the text of every page separated by newlines.
func (MuPDFEngine) ExtractText(ctx context.Context, path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", domain.ExtractionError("failed to open PDF", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(n)
		if err != nil {
			return "", domain.ExtractionError(fmt.Sprintf("failed to read page %d", n+1), err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

// RenderPages writes every page as a JPEG into outDir and returns the file
// paths in page order. The images feed the OCR batch.
func (MuPDFEngine) RenderPages(ctx context.Context, path, outDir string, quality int) ([]string, error) {
	if quality < 1 || quality > 100 {
		return nil, domain.InvalidInputError(fmt.Sprintf("quality must be between 1 and 100, got %d", quality))
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.ExtractionError("failed to open PDF", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, domain.ExtractionError("PDF has no pages", nil)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, domain.IOError("failed to create output directory", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.Image(n)
		if err != nil {
			return nil, domain.ExtractionError(fmt.Sprintf("failed to render page %d", n+1), err)
		}

		target := filepath.Join(outDir, fmt.Sprintf("%s_page_%03d.jpg", base, n+1))
		f, err := os.Create(target)
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("failed to create image for page %d", n+1), err)
		}
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
		f.Close()
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("failed to encode page %d", n+1), err)
		}
		out = append(out, target)
	}
	return out, nil
}
