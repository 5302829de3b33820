package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/cache"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/config"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/llm"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/ocr"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/pdf"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/storage"
)

// Bootstrap opens storage and cache, builds the model clients and OCR
// engines from cfg and returns the Service with a close function.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Service, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, domain.StorageError("open database", err)
	}
	closers = append(closers, db.Close)

	cacheClient, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Warn().Err(err).Str("driver", cfg.Cache.Driver).Msg("cache.unavailable_using_memory")
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}
	closers = append(closers, cacheClient.Close)

	structurer, answerer, gemini := Generators(cfg)
	if gemini != nil {
		closers = append(closers, gemini.Close)
	}
	if !structurer.Available() {
		logger.Warn().Str("provider", cfg.LLM.Provider).Msg("llm.not_configured")
	}

	var describer ocr.ImageDescriber
	if gemini != nil {
		describer = gemini
	}

	svc := New(cfg, Deps{
		Structurer: structurer,
		Answerer:   answerer,
		Model:      cfg.LLM.Model,
		OCREngines: OCREngines(cfg, describer, logger),
		PDF:        pdf.DefaultRegistry(logger),
		DB:         db,
		Cache:      cacheClient,
		Logger:     logger,
	})
	return svc, closeAll, nil
}

// Generators returns the structuring and answering clients for the
// configured provider. The Gemini client, when one is built, is returned too
// so it can serve image OCR and be closed.
func Generators(cfg *config.Config) (structurer, answerer domain.Generator, gemini *llm.GeminiClient) {
	switch cfg.LLM.Provider {
	case "openrouter":
		structurer = llm.NewOpenRouterClient(cfg.LLM.OpenRouterAPIKey, cfg.LLM.Model, cfg.LLM.StructureTemperature)
		answerer = llm.NewOpenRouterClient(cfg.LLM.OpenRouterAPIKey, cfg.LLM.Model, cfg.LLM.AnswerTemperature)
		if cfg.LLM.GeminiAPIKey != "" {
			gemini = llm.NewGeminiClient(cfg.LLM.GeminiAPIKey, "", cfg.LLM.StructureTemperature)
		}
	default:
		gemini = llm.NewGeminiClient(cfg.LLM.GeminiAPIKey, cfg.LLM.Model, cfg.LLM.StructureTemperature)
		structurer = gemini
		answerer = gemini.WithTemperature(cfg.LLM.AnswerTemperature)
	}
	return structurer, answerer, gemini
}

// OCREngines builds the configured engines lazily, so a missing tesseract
// binary or vision key only surfaces when a batch runs.
func OCREngines(cfg *config.Config, vision ocr.ImageDescriber, logger *observability.Logger) []domain.OCREngine {
	if logger == nil {
		logger = observability.NopLogger()
	}
	var engines []domain.OCREngine
	for _, name := range cfg.OCR.Engines {
		switch name {
		case "tesseract":
			engines = append(engines, ocr.NewLazyEngine(name, func() (domain.OCREngine, error) {
				bin, err := exec.LookPath(cfg.OCR.TesseractPath)
				if err != nil {
					return nil, domain.EngineUnavailableError(fmt.Sprintf("tesseract binary %q not found", cfg.OCR.TesseractPath), err)
				}
				if err := os.MkdirAll(cfg.Extraction.TempDir, 0o755); err != nil {
					return nil, domain.IOError("create temp directory", err)
				}
				e := ocr.NewTesseractEngine(bin, cfg.OCR.Languages, ocr.ExecRunner{Logger: logger.WithComponent("tesseract")})
				e.TempDir = cfg.Extraction.TempDir
				return e, nil
			}))
		case "vision":
			engines = append(engines, ocr.NewLazyEngine(name, func() (domain.OCREngine, error) {
				if vision == nil {
					return nil, domain.ModelUnavailableError("vision OCR needs a Gemini API key")
				}
				return ocr.NewVisionEngine(vision)
			}))
		}
	}
	return engines
}
