package ocr

import (
	"context"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

const visionInstruction = "Transcribe all text visible in this brochure image. " +
	"Return plain text only, one line per visual line, without commentary."

// ImageDescriber is a multimodal model that can read an image.
type ImageDescriber interface {
	Available() bool
	DescribeImage(ctx context.Context, instruction, mimeType string, data []byte) (string, error)
}

// VisionEngine reads images with a multimodal model.
type VisionEngine struct {
	model ImageDescriber
}

// NewVisionEngine fails with ErrModelUnavailable when the model has no credentials.
func NewVisionEngine(model ImageDescriber) (*VisionEngine, error) {
	if model == nil || !model.Available() {
		return nil, domain.ModelUnavailableError("vision model is not configured")
	}
	return &VisionEngine{model: model}, nil
}

func (v *VisionEngine) Name() string { return "vision" }

func (v *VisionEngine) OCR(ctx context.Context, image []byte) (string, error) {
	return v.model.DescribeImage(ctx, visionInstruction, mimetype.Detect(image).String(), image)
}
