package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

type stubEngine struct {
	name string
	text string
}

func (s stubEngine) Name() string { return s.name }

func (s stubEngine) ExtractText(ctx context.Context, path string) (string, error) {
	return s.text, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidatePDFPath(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name     string
		path     func(t *testing.T) string
		wantType domain.ErrorType
	}{
		{"empty", func(t *testing.T) string { return "  " }, domain.ErrorTypeInvalidInput},
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.pdf") }, domain.ErrorTypeNotFound},
		{"directory", func(t *testing.T) string { return t.TempDir() }, domain.ErrorTypeInvalidInput},
		{"wrong extension", func(t *testing.T) string { return writeFile(t, "notes.txt", "hi") }, domain.ErrorTypeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePDFPath(tt.path(t))
			require.Error(t, err)
			assert.Equal(t, tt.wantType, domain.TypeOf(err))
		})
	}

	assert.NoError(t, v.ValidatePDFPath(writeFile(t, "brochure.PDF", "%PDF-1.4")))
}

func TestRegistry_UnknownEngine(t *testing.T) {
	r := NewRegistry(nil, stubEngine{name: "stub", text: "hello"})

	_, err := r.ExtractText(context.Background(), "whatever.pdf", "pdfminer")
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeEngineUnavailable))
}

func TestRegistry_RunsNamedEngine(t *testing.T) {
	r := NewRegistry(nil, stubEngine{name: "a", text: "from a"}, stubEngine{name: "b", text: "from b"})
	path := writeFile(t, "brochure.pdf", "%PDF-1.4")

	text, err := r.ExtractText(context.Background(), path, "b")
	require.NoError(t, err)
	assert.Equal(t, "from b", text)
	assert.Equal(t, []string{"a", "b"}, r.Engines())
}

func TestDefaultRegistry_Engines(t *testing.T) {
	assert.Equal(t, []string{EngineGoPDF, EngineMuPDF}, DefaultRegistry(nil).Engines())
}

func TestPlainEngine_MalformedFile(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf at all")

	_, err := PlainEngine{}.ExtractText(context.Background(), path)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeExtraction))
}
