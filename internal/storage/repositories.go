package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// DocumentRepository stores brochure text extractions.
type DocumentRepository struct {
	db DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores doc, assigning an ID and timestamp when missing.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.ExtractedDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	query := `
		INSERT INTO extracted_documents (id, filename, engine, text, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query, doc.ID, doc.Filename, doc.Engine, doc.Text, string(fields), doc.CreatedAt)
	return err
}

// LatestByFilename returns the newest extraction of filename.
func (r *DocumentRepository) LatestByFilename(ctx context.Context, filename string) (*domain.ExtractedDocument, error) {
	query := `
		SELECT id, filename, engine, text, fields, created_at
		FROM extracted_documents
		WHERE filename = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	doc := &domain.ExtractedDocument{}
	var fields string
	err := r.db.QueryRowContext(ctx, query, filename).Scan(
		&doc.ID, &doc.Filename, &doc.Engine, &doc.Text, &fields, &doc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &doc.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return doc, nil
}

// PurgeBefore deletes extractions created before cutoff.
func (r *DocumentRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeBefore(ctx, r.db, "extracted_documents", cutoff)
}

// OCRRecord is a persisted per-image OCR result.
type OCRRecord struct {
	ID        string
	Result    domain.OCRResult
	CreatedAt time.Time
}

// OCRResultRepository stores per-image OCR results.
type OCRResultRepository struct {
	db DB
}

// NewOCRResultRepository creates a new OCR result repository.
func NewOCRResultRepository(db DB) *OCRResultRepository {
	return &OCRResultRepository{db: db}
}

// Create stores one OCR result.
func (r *OCRResultRepository) Create(ctx context.Context, res domain.OCRResult) (*OCRRecord, error) {
	details := []byte("{}")
	if res.Details != nil {
		var err error
		if details, err = json.Marshal(res.Details); err != nil {
			return nil, fmt.Errorf("marshal details: %w", err)
		}
	}
	rec := &OCRRecord{ID: uuid.NewString(), Result: res, CreatedAt: time.Now().UTC()}

	query := `
		INSERT INTO ocr_results (id, image_name, category, raw_text, details, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, res.Image, string(res.Category), res.RawText, string(details), res.Error, rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByImage returns stored results for image, newest first.
func (r *OCRResultRepository) ListByImage(ctx context.Context, image string) ([]OCRRecord, error) {
	query := `
		SELECT id, image_name, category, raw_text, details, error, created_at
		FROM ocr_results
		WHERE image_name = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, image)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OCRRecord
	for rows.Next() {
		var rec OCRRecord
		var category, details string
		if err := rows.Scan(&rec.ID, &rec.Result.Image, &category, &rec.Result.RawText, &details, &rec.Result.Error, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Result.Category = domain.ImageCategory(category)
		if rec.Result.Error == "" {
			var f domain.ImageFields
			if err := json.Unmarshal([]byte(details), &f); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
			rec.Result.Details = &f
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PurgeBefore deletes OCR results created before cutoff.
func (r *OCRResultRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeBefore(ctx, r.db, "ocr_results", cutoff)
}

// RecordRepository stores structuring outcomes.
type RecordRepository struct {
	db DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create stores rec, assigning an ID and timestamp when missing.
func (r *RecordRepository) Create(ctx context.Context, rec *domain.StoredRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(rec.Record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	query := `
		INSERT INTO structured_records (id, project_name, record, meta, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.db.ExecContext(ctx, query, rec.ID, rec.ProjectName, string(body), string(meta), rec.CreatedAt)
	return err
}

// GetByID retrieves a stored record.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.StoredRecord, error) {
	query := `
		SELECT id, project_name, record, meta, created_at
		FROM structured_records WHERE id = $1
	`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListRecent returns up to limit records, newest first.
func (r *RecordRepository) ListRecent(ctx context.Context, limit int) ([]domain.StoredRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, project_name, record, meta, created_at
		FROM structured_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// PurgeBefore deletes records created before cutoff.
func (r *RecordRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeBefore(ctx, r.db, "structured_records", cutoff)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*domain.StoredRecord, error) {
	rec := &domain.StoredRecord{}
	var body, meta string
	if err := s.Scan(&rec.ID, &rec.ProjectName, &body, &meta, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), &rec.Record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &rec.Meta); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}
	rec.Record.EnsureShape()
	return rec, nil
}

// table is always one of the package's own constants.
func purgeBefore(ctx context.Context, db DB, table string, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE created_at < $1", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", table, err)
	}
	return res.RowsAffected()
}
