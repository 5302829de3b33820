package ocr

import (
	"context"
	"sync"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// LazyEngine builds its engine on first use and reuses it afterwards. A
// construction error is remembered and returned on every call.
type LazyEngine struct {
	name  string
	build func() (domain.OCREngine, error)

	once   sync.Once
	engine domain.OCREngine
	err    error
}

// NewLazyEngine wraps build under name.
func NewLazyEngine(name string, build func() (domain.OCREngine, error)) *LazyEngine {
	return &LazyEngine{name: name, build: build}
}

func (l *LazyEngine) Name() string { return l.name }

func (l *LazyEngine) get() (domain.OCREngine, error) {
	l.once.Do(func() {
		l.engine, l.err = l.build()
		if l.err == nil && l.engine == nil {
			l.err = domain.EngineUnavailableError(l.name+" engine could not be built", nil)
		}
	})
	return l.engine, l.err
}

func (l *LazyEngine) OCR(ctx context.Context, image []byte) (string, error) {
	e, err := l.get()
	if err != nil {
		return "", err
	}
	return e.OCR(ctx, image)
}
