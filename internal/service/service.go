// Package service exposes the brochure engine's operations to the HTTP API
// and the CLI.
package service

import (
	"time"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/cache"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/config"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/grounding"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/llm"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/ocr"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/pdf"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/storage"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/structure"
)

// Deps are the collaborators a Service is built from. Every field is
// optional: a nil generator behaves as an unconfigured model, a nil DB
// disables persistence and a nil Cache disables answer caching.
type Deps struct {
	Structurer domain.Generator
	Answerer   domain.Generator
	Model      string
	OCREngines []domain.OCREngine
	PDF        *pdf.Registry
	DB         storage.DB
	Cache      cache.Client
	Logger     *observability.Logger

	// Sleep overrides the wait between model attempts.
	Sleep llm.SleepFunc
	// Now overrides the clock used for retention cutoffs.
	Now func() time.Time
}

// Service implements the brochure operations.
type Service struct {
	cfg          *config.Config
	orchestrator *structure.Orchestrator
	grounder     *grounding.Grounder
	answers      *cache.AnswerCache
	batch        *ocr.Batch
	pdf          *pdf.Registry

	docs    *storage.DocumentRepository
	ocrRepo *storage.OCRResultRepository
	records *storage.RecordRepository

	logger *observability.Logger
	now    func() time.Time
}

// New wires a Service from cfg and deps.
func New(cfg *config.Config, deps Deps) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	registry := deps.PDF
	if registry == nil {
		registry = pdf.DefaultRegistry(logger)
	}

	policy := llm.RetryPolicy{
		Backoffs:       cfg.Structuring.Backoffs,
		AttemptTimeout: cfg.Structuring.Timeout,
		Sleep:          deps.Sleep,
	}
	structurer := structure.NewStructurer(deps.Structurer, deps.Model, cfg.Structuring.Timeout,
		structure.WithRetryPolicy(policy),
		structure.WithLogger(logger.WithComponent("structurer")),
		structure.WithClock(now),
	)

	s := &Service{
		cfg:          cfg,
		orchestrator: structure.NewOrchestrator(structurer, logger.WithComponent("orchestrator")),
		grounder:     grounding.NewGrounder(deps.Answerer, cfg.Grounding.MaxQuestion, cfg.Grounding.Timeout, logger.WithComponent("grounder")),
		batch:        ocr.NewBatch(logger, deps.OCREngines...),
		pdf:          registry,
		logger:       logger,
		now:          now,
	}
	if deps.Cache != nil {
		s.answers = cache.NewAnswerCache(deps.Cache, cfg.Grounding.CacheTTL, logger)
	}
	if deps.DB != nil {
		s.docs = storage.NewDocumentRepository(deps.DB)
		s.ocrRepo = storage.NewOCRResultRepository(deps.DB)
		s.records = storage.NewRecordRepository(deps.DB)
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// OnOCRProgress forwards batch progress to fn.
func (s *Service) OnOCRProgress(fn ocr.ProgressFunc) {
	s.batch.OnProgress(fn)
}
