// Package structure turns normalized brochure text into a StructuredRecord
// with a generative model, and owns the validate-and-retry-once flow.
package structure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/normalize"
)

const instruction = "You are a structured data extraction expert for real estate brochures. " +
	"Return JSON ONLY, strictly following the schema provided. If data is unavailable, use empty strings or empty arrays."

// Inputs are the model-ready sources for one structuring request.
type Inputs struct {
	PDFText       string
	OCRText       string
	MergedText    string
	ImageMetadata domain.ImageMetadata
	ProjectName   string
}

// NormalizeInputs prepares both sources for the prompt and merges them.
func NormalizeInputs(pdfText, ocrText string, meta domain.ImageMetadata, projectName string) Inputs {
	pdfNorm := normalize.ForModel(pdfText)
	ocrNorm := normalize.ForModel(ocrText)
	if meta == nil {
		meta = domain.ImageMetadata{}
	}
	return Inputs{
		PDFText:       pdfNorm,
		OCRText:       ocrNorm,
		MergedText:    normalize.MergeConflicts(pdfNorm, ocrNorm),
		ImageMetadata: meta,
		ProjectName:   strings.TrimSpace(projectName),
	}
}

// CombinedSize is the character count checked against the structuring limit:
// both raw texts, the serialized image metadata and the project name.
func CombinedSize(pdfText, ocrText string, meta domain.ImageMetadata, projectName string) int {
	metaJSON, _ := json.Marshal(meta)
	return len([]rune(pdfText)) + len([]rune(ocrText)) + len([]rune(string(metaJSON))) + len([]rune(projectName))
}

type promptInput struct {
	PDFText       string               `json:"pdf_text"`
	OCRText       string               `json:"ocr_text"`
	ImageMetadata domain.ImageMetadata `json:"image_metadata"`
	ProjectName   string               `json:"project_name"`
}

type promptPayload struct {
	Instruction string                  `json:"instruction"`
	Input       promptInput             `json:"input"`
	Schema      domain.StructuredRecord `json:"schema"`
}

// exampleSchema shows one placeholder floor plan and FAQ so the model sees
// the element shapes.
func exampleSchema() domain.StructuredRecord {
	s := domain.Skeleton()
	s.FloorPlans = []domain.FloorPlan{{}}
	s.FAQs = []domain.FAQ{{}}
	return s
}

// BuildPrompt renders the single JSON prompt document.
func BuildPrompt(in Inputs) (string, error) {
	meta := in.ImageMetadata
	if meta == nil {
		meta = domain.ImageMetadata{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(promptPayload{
		Instruction: instruction,
		Input: promptInput{
			PDFText:       in.PDFText,
			OCRText:       in.OCRText,
			ImageMetadata: meta,
			ProjectName:   in.ProjectName,
		},
		Schema: exampleSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
