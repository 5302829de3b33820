package service

import (
	"context"
	"fmt"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/ocr"
)

// ExtractOCRBatch runs every image through the OCR engines. Per-image
// failures are reported inside the results; results that carry text are
// persisted when storage is configured.
func (s *Service) ExtractOCRBatch(ctx context.Context, images []ocr.Image) []domain.OCRResult {
	results := s.batch.Run(ctx, images)
	if s.ocrRepo == nil {
		return results
	}
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		if _, err := s.ocrRepo.Create(ctx, r); err != nil {
			s.logger.WithContext(ctx).Warn().Str("image", r.Image).Err(err).Msg("ocr.persist_failed")
		}
	}
	return results
}

// OCRDirectory loads every image in dir, or the configured images
// directory when dir is empty, and runs the batch.
func (s *Service) OCRDirectory(ctx context.Context, dir string) ([]domain.OCRResult, error) {
	if dir == "" {
		dir = s.cfg.OCR.ImagesDir
	}
	images, err := ocr.LoadImages(dir)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, domain.InvalidInputError(fmt.Sprintf("No images found in %s", dir))
	}
	return s.ExtractOCRBatch(ctx, images), nil
}
