package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/ocr"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/service"
)

type fakeService struct {
	structureRes service.StructureResult
	structureErr error
	gotStructure service.StructureRequest

	answer      domain.GroundedAnswer
	answerErr   error
	gotQuestion string
	gotRecord   domain.StructuredRecord

	batchImages []ocr.Image
	dirResults  []domain.OCRResult
	dirErr      error

	extractRes service.BrochureExtraction
	extractErr error

	uploadName string
	uploadBody []byte

	record    *domain.StoredRecord
	recordErr error
}

func (f *fakeService) StructureDocument(ctx context.Context, req service.StructureRequest) (service.StructureResult, error) {
	f.gotStructure = req
	return f.structureRes, f.structureErr
}

func (f *fakeService) ExtractOCRBatch(ctx context.Context, images []ocr.Image) []domain.OCRResult {
	f.batchImages = images
	out := make([]domain.OCRResult, len(images))
	for i, img := range images {
		out[i] = domain.OCRResult{Image: img.Name, RawText: string(img.Data)}
	}
	return out
}

func (f *fakeService) OCRDirectory(ctx context.Context, dir string) ([]domain.OCRResult, error) {
	return f.dirResults, f.dirErr
}

func (f *fakeService) Answer(ctx context.Context, question string, record domain.StructuredRecord) (domain.GroundedAnswer, error) {
	f.gotQuestion = question
	f.gotRecord = record
	return f.answer, f.answerErr
}

func (f *fakeService) ExtractBrochure(ctx context.Context, filename string) (service.BrochureExtraction, error) {
	return f.extractRes, f.extractErr
}

func (f *fakeService) SaveUpload(ctx context.Context, filename string, r io.Reader) (service.Upload, error) {
	f.uploadName = filename
	f.uploadBody, _ = io.ReadAll(r)
	return service.Upload{Filename: filename, SizeBytes: int64(len(f.uploadBody))}, nil
}

func (f *fakeService) GetRecord(ctx context.Context, id string) (*domain.StoredRecord, error) {
	return f.record, f.recordErr
}

func newTestRouter(svc BrochureService) http.Handler {
	h := NewBrochureHandler(observability.NopLogger(), svc)
	r := chi.NewRouter()
	r.Post("/upload", h.Upload)
	r.Get("/extract-text", h.ExtractText)
	r.Post("/extract-ocr-data", h.OCR)
	r.Post("/structure-data", h.Structure)
	r.Post("/chatbot/query", h.Chat)
	r.Get("/records/{id}", h.GetRecord)
	return r
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestStructure_Success(t *testing.T) {
	rec := domain.Skeleton()
	rec.ProjectOverview.ProjectName = "Sky Residency"
	svc := &fakeService{structureRes: service.StructureResult{ID: "rec-1", Record: rec, OK: true, Meta: domain.StructureMeta{Attempts: 1}}}

	body := `{"pdf_text":"Sky Residency by Acme","ocr_text":"","image_metadata":{},"project_name":"Sky"}`
	resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/structure-data", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "success", got["status"])
	assert.Equal(t, "Structured successfully", got["message"])
	assert.Equal(t, "rec-1", got["id"])
	assert.Equal(t, "Sky Residency", got["data"].(map[string]any)["project_overview"].(map[string]any)["project_name"])
	assert.Equal(t, "Sky Residency by Acme", svc.gotStructure.PDFText)
	assert.Equal(t, "Sky", svc.gotStructure.ProjectName)
}

func TestStructure_Failures(t *testing.T) {
	tests := []struct {
		name       string
		svc        *fakeService
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "bad json",
			svc:        &fakeService{},
			body:       `{"pdf_text":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "too large",
			svc:        &fakeService{structureErr: domain.InputTooLargeError(200001, 200000)},
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "input too large: 200001 characters exceeds limit of 200000",
		},
		{
			name:       "model failed",
			svc:        &fakeService{structureRes: service.StructureResult{OK: false, Reason: "schema validation failed"}},
			body:       `{}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to structure data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, got := do(t, newTestRouter(tt.svc), httptest.NewRequest(http.MethodPost, "/structure-data", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, "error", got["status"])
			assert.Equal(t, tt.wantError, got["error"])
		})
	}
}

func TestChat(t *testing.T) {
	svc := &fakeService{answer: domain.GroundedAnswer{Answer: "The RERA number is P52100012345."}}

	body := `{"question":"What is the RERA number?","context":{"project_overview":{"rera_number":"P52100012345"}}}`
	resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/chatbot/query", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "The RERA number is P52100012345.", got["answer"])
	assert.Equal(t, "What is the RERA number?", svc.gotQuestion)
	assert.Equal(t, "P52100012345", svc.gotRecord.ProjectOverview.RERANumber)
}

func TestChat_BlankQuestion(t *testing.T) {
	svc := &fakeService{answerErr: domain.InvalidInputError("question required")}

	resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/chatbot/query", strings.NewReader(`{"question":"  "}`)))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "question required", got["error"])
}

func TestOCR_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"floor plan.png", "../amenities.jpg"} {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("img:" + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract-ocr-data", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	svc := &fakeService{}
	resp, got := do(t, newTestRouter(svc), req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "OCR complete", got["message"])
	require.Len(t, svc.batchImages, 2)
	assert.Equal(t, "floor_plan.png", svc.batchImages[0].Name)
	assert.Equal(t, "amenities.jpg", svc.batchImages[1].Name)
	assert.Len(t, got["data"], 2)
}

func TestOCR_Directory(t *testing.T) {
	t.Run("results", func(t *testing.T) {
		svc := &fakeService{dirResults: []domain.OCRResult{{Image: "a.png", Error: ocr.TextNotDetected}}}
		resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/extract-ocr-data", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		data := got["data"].([]any)
		require.Len(t, data, 1)
		assert.Equal(t, "Text not detected", data[0].(map[string]any)["error"])
	})

	t.Run("empty directory", func(t *testing.T) {
		svc := &fakeService{dirErr: domain.InvalidInputError("No images found in images")}
		resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/extract-ocr-data", nil))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "No images found in images", got["error"])
	})
}

func TestExtractText(t *testing.T) {
	project := "Sky Residency"

	t.Run("fresh", func(t *testing.T) {
		svc := &fakeService{extractRes: service.BrochureExtraction{Fields: domain.BrochureFields{ProjectName: &project}, RawTextLength: 42}}
		resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/extract-text?filename=sky.pdf", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "Text extracted successfully", got["message"])
		assert.EqualValues(t, 42, got["raw_text_length"])
		assert.Equal(t, project, got["data"].(map[string]any)["project_name"])
	})

	t.Run("cached", func(t *testing.T) {
		svc := &fakeService{extractRes: service.BrochureExtraction{Cached: true}}
		_, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/extract-text?filename=sky.pdf", nil))
		assert.Equal(t, "Text fetched successfully", got["message"])
	})

	t.Run("missing file", func(t *testing.T) {
		svc := &fakeService{extractErr: domain.NotFoundError("File not found")}
		resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/extract-text?filename=nope.pdf", nil))
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "File not found", got["error"])
	})

	t.Run("engine failure", func(t *testing.T) {
		svc := &fakeService{extractErr: domain.ExtractionError("failed to open PDF", nil)}
		resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/extract-text?filename=bad.pdf", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, "Failed to extract text from PDF", got["error"])
	})

	t.Run("engine unavailable", func(t *testing.T) {
		svc := &fakeService{extractErr: domain.EngineUnavailableError(`text engine "pdfminer" is not available`, nil)}
		resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/extract-text?filename=sky.pdf", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, "Failed to extract text from PDF", got["error"])
	})
}

func TestUpload(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "sky.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 body"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	svc := &fakeService{}
	resp, got := do(t, newTestRouter(svc), req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "sky.pdf", svc.uploadName)
	assert.Equal(t, "%PDF-1.4 body", string(svc.uploadBody))
	assert.EqualValues(t, 13, got["data"].(map[string]any)["size_bytes"])
}

func TestUpload_NoFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	resp, got := do(t, newTestRouter(&fakeService{}), req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "No file provided", got["error"])
}

func TestGetRecord(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &fakeService{record: &domain.StoredRecord{ID: "rec-1", ProjectName: "Sky"}}
		resp, got := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/records/rec-1", nil))
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "rec-1", got["data"].(map[string]any)["id"])
	})

	t.Run("missing", func(t *testing.T) {
		svc := &fakeService{recordErr: domain.NotFoundError("record not found")}
		resp, _ := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/records/nope", nil))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
