package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/heuristics"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/normalize"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/storage"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// BrochureExtraction is the outcome of ExtractBrochure.
type BrochureExtraction struct {
	Filename      string                `json:"filename"`
	Engine        string                `json:"engine"`
	Fields        domain.BrochureFields `json:"data"`
	RawTextLength int                   `json:"raw_text_length"`
	Cached        bool                  `json:"cached"`
}

// Upload describes a stored PDF upload.
type Upload struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	SavedAt   time.Time `json:"uploaded_at"`
}

// PurgeReport counts what a purge removed.
type PurgeReport struct {
	Documents  int64 `json:"documents"`
	OCRResults int64 `json:"ocr_results"`
	Records    int64 `json:"records"`
	TempFiles  int   `json:"temp_files"`
}

// SanitizeFilename reduces name to a flat, safe file name: path separators
// become spaces, whitespace runs become '_', and anything outside
// [A-Za-z0-9_.-] is dropped along with leading and trailing dots and
// underscores. The result may be empty.
func SanitizeFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// ExtractBrochure extracts heuristic fields from an uploaded PDF. A stored
// extraction of the same file is returned as is.
func (s *Service) ExtractBrochure(ctx context.Context, filename string) (BrochureExtraction, error) {
	logger := s.logger.WithContext(ctx).WithOperation("extract")
	start := s.now()

	name := SanitizeFilename(strings.TrimSpace(filename))
	if name == "" {
		return BrochureExtraction{}, domain.InvalidInputError("filename query param required")
	}

	if s.docs != nil {
		doc, err := s.docs.LatestByFilename(ctx, name)
		switch {
		case err == nil:
			logger.Info().Str("file", name).Int64("duration_ms", s.now().Sub(start).Milliseconds()).Msg("extract.cached")
			return BrochureExtraction{
				Filename:      name,
				Engine:        doc.Engine,
				Fields:        doc.Fields,
				RawTextLength: len([]rune(doc.Text)),
				Cached:        true,
			}, nil
		case !errors.Is(err, storage.ErrNotFound):
			logger.Warn().Err(err).Msg("extract.cache_lookup_failed")
		}
	}

	path := s.resolveUpload(name)
	if path == "" {
		return BrochureExtraction{}, domain.NotFoundError("File not found")
	}

	engine := s.cfg.Extraction.TextEngine
	raw, err := s.pdf.ExtractText(ctx, path, engine)
	if err != nil {
		logger.Error().Str("file", name).Err(err).Msg("extract.failed")
		return BrochureExtraction{}, err
	}
	cleaned := normalize.Clean(raw)
	fields := heuristics.ExtractBrochure(cleaned)

	if s.docs != nil {
		doc := &domain.ExtractedDocument{Filename: name, Engine: engine, Text: cleaned, Fields: fields}
		if err := s.docs.Create(ctx, doc); err != nil {
			logger.Warn().Err(err).Msg("extract.persist_failed")
		}
		s.purgeExtractions(ctx)
	}

	logger.Info().Str("file", name).Int64("duration_ms", s.now().Sub(start).Milliseconds()).Msg("extract.success")
	return BrochureExtraction{
		Filename:      name,
		Engine:        engine,
		Fields:        fields,
		RawTextLength: len([]rune(cleaned)),
	}, nil
}

// resolveUpload looks for name in the upload directory, then the temp directory.
func (s *Service) resolveUpload(name string) string {
	for _, dir := range []string{s.cfg.Extraction.UploadDir, s.cfg.Extraction.TempDir} {
		if dir == "" {
			continue
		}
		root, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		p := filepath.Join(root, name)
		if !strings.HasPrefix(p, root+string(filepath.Separator)) {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// SaveUpload stores a PDF in the upload directory under a sanitized, unique
// name. The content must start with the PDF magic bytes and fit the
// configured size limit.
func (s *Service) SaveUpload(ctx context.Context, filename string, r io.Reader) (Upload, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return Upload{}, domain.InvalidInputError("No selected file")
	}
	if strings.ToLower(filepath.Ext(name)) != ".pdf" {
		return Upload{}, domain.InvalidInputError("Only PDF files are allowed")
	}

	limit := s.cfg.Server.MaxUploadBytes
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Upload{}, domain.IOError("read upload", err)
	}
	if int64(len(body)) > limit {
		return Upload{}, domain.InvalidInputError(fmt.Sprintf("File too large (max %d bytes)", limit))
	}
	if !mimetype.Detect(body).Is("application/pdf") {
		return Upload{}, domain.InvalidInputError("Invalid PDF content")
	}

	dir := s.cfg.Extraction.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Upload{}, domain.IOError("create upload directory", err)
	}
	name = uniqueName(dir, name)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		s.logger.WithContext(ctx).Error().Str("path", path).Err(err).Msg("upload.save_failed")
		return Upload{}, domain.IOError("Upload failed. Please try again.", err)
	}

	s.logger.WithContext(ctx).Info().Str("file", name).Int("size_bytes", len(body)).Msg("upload.success")
	return Upload{Filename: name, Path: path, SizeBytes: int64(len(body)), SavedAt: s.now().UTC()}, nil
}

// uniqueName appends (1), (2), ... before the extension until name is free in dir.
func uniqueName(dir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s(%d)%s", stem, i, ext)
	}
}

// purgeExtractions drops stored extractions and temp files past retention.
// Failures are logged only.
func (s *Service) purgeExtractions(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.Extraction.Retention)
	if _, err := s.docs.PurgeBefore(ctx, cutoff); err != nil {
		s.logger.Warn().Err(err).Msg("extract.purge_failed")
	}
	if _, err := purgeTempFiles(s.cfg.Extraction.TempDir, cutoff); err != nil {
		s.logger.Warn().Err(err).Msg("extract.purge_failed")
	}
}

// Purge removes everything older than the retention window.
func (s *Service) Purge(ctx context.Context) (PurgeReport, error) {
	var report PurgeReport
	cutoff := s.now().Add(-s.cfg.Extraction.Retention)

	if s.docs != nil {
		var err error
		if report.Documents, err = s.docs.PurgeBefore(ctx, cutoff); err != nil {
			return report, domain.StorageError("purge documents", err)
		}
		if report.OCRResults, err = s.ocrRepo.PurgeBefore(ctx, cutoff); err != nil {
			return report, domain.StorageError("purge ocr results", err)
		}
		if report.Records, err = s.records.PurgeBefore(ctx, cutoff); err != nil {
			return report, domain.StorageError("purge records", err)
		}
	}

	n, err := purgeTempFiles(s.cfg.Extraction.TempDir, cutoff)
	report.TempFiles = n
	if err != nil {
		return report, domain.IOError("purge temp files", err)
	}

	s.logger.WithContext(ctx).Info().
		Int64("documents", report.Documents).
		Int64("ocr_results", report.OCRResults).
		Int64("records", report.Records).
		Int("temp_files", report.TempFiles).
		Msg("purge.completed")
	return report, nil
}

func purgeTempFiles(dir string, cutoff time.Time) (int, error) {
	if dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// storageErr maps repository errors onto domain errors.
func storageErr(what string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NotFoundError(what + " not found")
	}
	return domain.StorageError(what, err)
}
