// Package ocr runs brochure images through one or more OCR engines and turns
// the merged text into per-image results.
package ocr

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/heuristics"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/normalize"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
)

// TextNotDetected is the per-image error reported when no engine produced text.
const TextNotDetected = "Text not detected"

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Image is one named image in a batch.
type Image struct {
	Name string
	Data []byte
}

// ProgressFunc is called after each image with the number done and the total.
type ProgressFunc func(done, total int)

// Batch runs every image through all engines and merges their output.
type Batch struct {
	engines  []domain.OCREngine
	logger   *observability.Logger
	progress ProgressFunc
}

// NewBatch builds a batch over engines, in order.
func NewBatch(logger *observability.Logger, engines ...domain.OCREngine) *Batch {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Batch{engines: engines, logger: logger.WithComponent("ocr")}
}

// OnProgress registers a progress callback.
func (b *Batch) OnProgress(fn ProgressFunc) *Batch {
	b.progress = fn
	return b
}

// Engines returns the engine names in run order.
func (b *Batch) Engines() []string {
	names := make([]string, len(b.engines))
	for i, e := range b.engines {
		names[i] = e.Name()
	}
	return names
}

// Run returns one result per image, in input order. Failures never abort the
// batch; they become {image, error} entries.
func (b *Batch) Run(ctx context.Context, images []Image) []domain.OCRResult {
	start := time.Now()
	b.logger.Info().Int("count", len(images)).Strs("engines", b.Engines()).Msg("ocr.batch.started")

	results := make([]domain.OCRResult, 0, len(images))
	for i, img := range images {
		results = append(results, b.one(ctx, img))
		if b.progress != nil {
			b.progress(i+1, len(images))
		}
	}

	b.logger.Info().
		Int("count", len(results)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("ocr.batch.completed")
	return results
}

func (b *Batch) one(ctx context.Context, img Image) domain.OCRResult {
	merged := ""
	ok := false
	for _, e := range b.engines {
		if err := ctx.Err(); err != nil {
			break
		}
		text, err := e.OCR(ctx, img.Data)
		if err != nil {
			b.logger.Warn().Str("image", img.Name).Str("engine", e.Name()).Err(err).Msg("ocr.engine.failed")
			continue
		}
		ok = true
		merged = normalize.MergeOCR(merged, text)
	}

	if !ok || merged == "" {
		b.logger.Error().Str("image", img.Name).Msg("ocr.batch.image_failed")
		return domain.OCRResult{Image: img.Name, Error: TextNotDetected}
	}
	return heuristics.BuildOCRResult(img.Name, merged)
}

// ListImages returns the image file names in dir, sorted. A missing
// directory yields no names.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.IOError("failed to list images", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadImages reads every image in dir.
func LoadImages(dir string) ([]Image, error) {
	names, err := ListImages(dir)
	if err != nil {
		return nil, err
	}
	images := make([]Image, 0, len(names))
	for _, n := range names {
		data, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, domain.IOError("failed to read image "+n, err)
		}
		images = append(images, Image{Name: n, Data: data})
	}
	return images, nil
}
