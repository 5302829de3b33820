package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/ocr"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/service"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/structure"
)

const maxMultipartMemory = 32 << 20

// BrochureService is what the handlers need from the service layer.
type BrochureService interface {
	StructureDocument(ctx context.Context, req service.StructureRequest) (service.StructureResult, error)
	ExtractOCRBatch(ctx context.Context, images []ocr.Image) []domain.OCRResult
	OCRDirectory(ctx context.Context, dir string) ([]domain.OCRResult, error)
	Answer(ctx context.Context, question string, record domain.StructuredRecord) (domain.GroundedAnswer, error)
	ExtractBrochure(ctx context.Context, filename string) (service.BrochureExtraction, error)
	SaveUpload(ctx context.Context, filename string, r io.Reader) (service.Upload, error)
	GetRecord(ctx context.Context, id string) (*domain.StoredRecord, error)
}

// BrochureHandler serves the brochure endpoints.
type BrochureHandler struct {
	logger *observability.Logger
	svc    BrochureService
}

// NewBrochureHandler creates a new brochure handler.
func NewBrochureHandler(logger *observability.Logger, svc BrochureService) *BrochureHandler {
	return &BrochureHandler{logger: logger, svc: svc}
}

type structureResponse struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message"`
	ID      string                  `json:"id,omitempty"`
	Data    domain.StructuredRecord `json:"data"`
	Meta    domain.StructureMeta    `json:"meta"`
}

// Structure handles POST /structure-data.
func (h *BrochureHandler) Structure(w http.ResponseWriter, r *http.Request) {
	var req service.StructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := h.svc.StructureDocument(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !res.OK {
		writeError(w, http.StatusInternalServerError, "Failed to structure data", res.Reason)
		return
	}

	writeJSON(w, http.StatusOK, structureResponse{
		Status:  "success",
		Message: "Structured successfully",
		ID:      res.ID,
		Data:    res.Record,
		Meta:    res.Meta,
	})
}

type chatRequest struct {
	Question string         `json:"question"`
	Context  map[string]any `json:"context"`
}

// Chat handles POST /chatbot/query. The context record is decoded
// leniently, so partial or loosely typed records are accepted.
func (h *BrochureHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ans, err := h.svc.Answer(r.Context(), req.Question, structure.Decode(req.Context))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// OCR handles POST /extract-ocr-data. Images posted as multipart "images"
// parts are processed; without any, the configured images directory is.
func (h *BrochureHandler) OCR(w http.ResponseWriter, r *http.Request) {
	var (
		results []domain.OCRResult
		err     error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var images []ocr.Image
		images, err = readImages(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body", err.Error())
			return
		}
		if len(images) == 0 {
			writeError(w, http.StatusBadRequest, "No images provided", "")
			return
		}
		results = h.svc.ExtractOCRBatch(r.Context(), images)
	} else {
		results, err = h.svc.OCRDirectory(r.Context(), "")
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	writeSuccess(w, "OCR complete", results)
}

func readImages(r *http.Request) ([]ocr.Image, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, err
	}
	var images []ocr.Image
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, ocr.Image{Name: service.SanitizeFilename(fh.Filename), Data: data})
	}
	return images, nil
}

type extractResponse struct {
	Status        string                `json:"status"`
	Message       string                `json:"message"`
	Data          domain.BrochureFields `json:"data"`
	RawTextLength int                   `json:"raw_text_length"`
}

// ExtractText handles GET /extract-text?filename=...
func (h *BrochureHandler) ExtractText(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ExtractBrochure(r.Context(), r.URL.Query().Get("filename"))
	if err != nil {
		switch domain.TypeOf(err) {
		case domain.ErrorTypeExtraction, domain.ErrorTypeEngineUnavailable:
			writeError(w, http.StatusInternalServerError, "Failed to extract text from PDF", "")
		default:
			writeDomainError(w, err)
		}
		return
	}

	msg := "Text extracted successfully"
	if res.Cached {
		msg = "Text fetched successfully"
	}
	writeJSON(w, http.StatusOK, extractResponse{
		Status:        "success",
		Message:       msg,
		Data:          res.Fields,
		RawTextLength: res.RawTextLength,
	})
}

// Upload handles POST /upload with a multipart "file" part.
func (h *BrochureHandler) Upload(w http.ResponseWriter, r *http.Request) {
	f, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided", err.Error())
		return
	}
	defer f.Close()

	up, err := h.svc.SaveUpload(r.Context(), fh.Filename, f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, "Uploaded", up)
}

// GetRecord handles GET /records/{id}.
func (h *BrochureHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, "", rec)
}
