package pdf

import (
	"context"
	"fmt"
	"io"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// EngineGoPDF is the registry name of the pure-Go engine.
const EngineGoPDF = "gopdf"

// PlainEngine reads PDFs with the pure-Go ledongthuc/pdf reader. It needs no
// native library, at the cost of weaker layout handling.
type PlainEngine struct{}

// Name returns the registry name.
func (PlainEngine) Name() string { return EngineGoPDF }

// ExtractText returns the document's plain text.
func (PlainEngine) ExtractText(ctx context.Context, path string) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", domain.ExtractionError("malformed PDF", fmt.Errorf("%v", r))
		}
	}()

	f, r, err := lpdf.Open(path)
	if err != nil {
		return "", domain.ExtractionError("failed to open PDF", err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	rd, err := r.GetPlainText()
	if err != nil {
		return "", domain.ExtractionError("failed to read PDF text", err)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", domain.ExtractionError("failed to read PDF text", err)
	}
	return string(b), nil
}
