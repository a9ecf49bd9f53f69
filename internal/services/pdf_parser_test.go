package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFParser_ExtractText(t *testing.T) {
	parser := NewPDFParserService()

	text, err := parser.ExtractText(makePDF(t, "Jane Doe - Senior Go Engineer"))
	require.NoError(t, err)

	assert.Contains(t, text, "Jane Doe - Senior Go Engineer")
	assert.Equal(t, strings.TrimSpace(text), text)
}

func TestPDFParser_ExtractText_SkipsEmptyPages(t *testing.T) {
	parser := NewPDFParserService()

	text, err := parser.ExtractText(makePDF(t, "Page one", "", "Page three"))
	require.NoError(t, err)

	assert.Contains(t, text, "Page one")
	assert.Contains(t, text, "Page three")
	assert.Less(t, strings.Index(text, "Page one"), strings.Index(text, "Page three"))
	assert.Equal(t, strings.TrimSpace(text), text)
}

func TestPDFParser_ExtractText_Failures(t *testing.T) {
	parser := NewPDFParserService()

	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"not a pdf", []byte("this is a plain text resume")},
		{"truncated pdf", makePDF(t, "Jane Doe")[:64]},
		{"no text", makePDF(t, "", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := parser.ExtractText(tt.data)
			require.Error(t, err)
			assert.Empty(t, text)

			var extractErr *ExtractionError
			assert.True(t, errors.As(err, &extractErr), "want *ExtractionError, got %T", err)
		})
	}
}

func TestPDFParser_ExtractFile(t *testing.T) {
	parser := NewPDFParserService()
	dir := t.TempDir()

	path := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(path, makePDF(t, "Go, PostgreSQL, Kubernetes"), 0644))

	text, err := parser.ExtractFile(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Go, PostgreSQL, Kubernetes")

	_, err = parser.ExtractFile(filepath.Join(dir, "missing.pdf"))
	var extractErr *ExtractionError
	assert.True(t, errors.As(err, &extractErr))
}
