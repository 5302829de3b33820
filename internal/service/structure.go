package service

import (
	"context"
	"fmt"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/structure"
)

// StructureRequest is the input of StructureDocument.
type StructureRequest struct {
	PDFText       string               `json:"pdf_text"`
	OCRText       string               `json:"ocr_text"`
	ImageMetadata domain.ImageMetadata `json:"image_metadata"`
	ProjectName   string               `json:"project_name"`
}

// StructureResult is the outcome of StructureDocument. Record always has the
// five top-level keys; OK is false when both passes failed validation.
type StructureResult struct {
	ID     string                  `json:"id,omitempty"`
	Record domain.StructuredRecord `json:"record"`
	OK     bool                    `json:"ok"`
	Reason string                  `json:"reason,omitempty"`
	Meta   domain.StructureMeta    `json:"meta"`
}

// StructureDocument structures one brochure. The only error is
// ErrInputTooLarge, returned before any model call.
func (s *Service) StructureDocument(ctx context.Context, req StructureRequest) (StructureResult, error) {
	logger := s.logger.WithContext(ctx).WithOperation("structure")

	size := structure.CombinedSize(req.PDFText, req.OCRText, req.ImageMetadata, req.ProjectName)
	if size > s.cfg.Structuring.MaxChars {
		logger.Warn().Int("size", size).Int("limit", s.cfg.Structuring.MaxChars).Msg("structure.rejected")
		return StructureResult{}, domain.InputTooLargeError(size, s.cfg.Structuring.MaxChars)
	}

	in := structure.NormalizeInputs(req.PDFText, req.OCRText, req.ImageMetadata, req.ProjectName)
	logger.Info().Int("size", size).Msg("structure.request")

	start := s.now()
	out := s.orchestrator.Run(ctx, in)

	logger.Info().
		Int64("duration_ms", s.now().Sub(start).Milliseconds()).
		Int("size", size).
		Bool("ok", out.OK).
		Str("model", out.Meta.Model).
		Bool("fallback", out.Meta.Fallback).
		Bool("repaired", out.Meta.Repaired).
		Bool("retry", out.Meta.Retry).
		Summary("pdf_summary", in.PDFText).
		Summary("ocr_summary", in.OCRText).
		Msg("structure.result")

	res := StructureResult{Record: out.Record, OK: out.OK, Reason: out.Reason, Meta: out.Meta}
	if !out.OK {
		logger.Error().Str("reason", out.Reason).Msg("structure.failed")
		return res, nil
	}

	if s.records != nil {
		stored := &domain.StoredRecord{ProjectName: in.ProjectName, Record: out.Record, Meta: out.Meta}
		if err := s.records.Create(ctx, stored); err != nil {
			logger.Warn().Err(fmt.Errorf("store record: %w", err)).Msg("structure.persist_failed")
		} else {
			res.ID = stored.ID
		}
	}
	return res, nil
}

// GetRecord loads a stored structuring outcome.
func (s *Service) GetRecord(ctx context.Context, id string) (*domain.StoredRecord, error) {
	if s.records == nil {
		return nil, domain.NotFoundError("record storage is not configured")
	}
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("record "+id, err)
	}
	return rec, nil
}

// ListRecords returns the newest stored records.
func (s *Service) ListRecords(ctx context.Context, limit int) ([]domain.StoredRecord, error) {
	if s.records == nil {
		return []domain.StoredRecord{}, nil
	}
	recs, err := s.records.ListRecent(ctx, limit)
	if err != nil {
		return nil, domain.StorageError("list records", err)
	}
	if recs == nil {
		recs = []domain.StoredRecord{}
	}
	return recs, nil
}
