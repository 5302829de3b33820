package domain

import "context"

// Generator is a text-generation model client
type Generator interface {
	// Available reports whether a credential is configured. When false the
	// caller must take the zero-network fallback path.
	Available() bool

	// GenerateText sends a single prompt and returns the raw response text
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// TextExtractor pulls plain text out of a document file
type TextExtractor interface {
	Name() string
	ExtractText(ctx context.Context, path string) (string, error)
}

// OCREngine turns an image buffer into best-effort text, possibly empty
type OCREngine interface {
	Name() string
	OCR(ctx context.Context, image []byte) (string, error)
}
