package pdf

import (
	"context"
	"fmt"
	"sort"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
)

// Registry resolves text engines by name.
type Registry struct {
	engines   map[string]domain.TextExtractor
	validator *Validator
}

// NewRegistry registers the given engines.
func NewRegistry(logger *observability.Logger, engines ...domain.TextExtractor) *Registry {
	r := &Registry{
		engines:   make(map[string]domain.TextExtractor, len(engines)),
		validator: NewValidator(logger),
	}
	for _, e := range engines {
		r.engines[e.Name()] = e
	}
	return r
}

// DefaultRegistry registers MuPDF and the pure-Go engine.
func DefaultRegistry(logger *observability.Logger) *Registry {
	return NewRegistry(logger, MuPDFEngine{}, PlainEngine{})
}

// Engines lists registered engine names.
func (r *Registry) Engines() []string {
	names := make([]string, 0, len(r.engines))
	for n := range r.engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ExtractText validates path and runs the named engine on it.
func (r *Registry) ExtractText(ctx context.Context, path, engine string) (string, error) {
	e, ok := r.engines[engine]
	if !ok {
		return "", domain.EngineUnavailableError(fmt.Sprintf("text engine %q is not available", engine), nil)
	}
	if err := r.validator.ValidatePDFPath(path); err != nil {
		return "", err
	}
	return e.ExtractText(ctx, path)
}
