package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/smart-ats/internal/models"
)

func sampleBest() models.BestMatch {
	return models.BestMatch{
		Filename: "jane_doe.pdf",
		Found:    true,
		Record: models.EvaluationRecord{
			MatchPercent:    "82",
			MissingKeywords: []string{"Docker"},
			ProfileSummary:  "Strong backend engineer",
			Suggestions:     "Add cloud certifications",
		},
	}
}

func TestReportGenerator_Render_FieldLines(t *testing.T) {
	gen := NewReportGenerator(ReportOptions{Encoding: EncodingSanitize, Compress: false})

	doc, err := gen.Render(sampleBest())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))

	for _, line := range []string{
		ReportTitle,
		"Resume: jane_doe.pdf",
		"JD Match: 82%",
		"MissingKeywords: Docker",
		"Profile Summary: Strong backend engineer",
		"Suggestions: Add cloud certifications",
	} {
		assert.True(t, bytes.Contains(doc, []byte("("+line+")")), "missing line %q", line)
	}
}

func TestReportGenerator_Render_ReadBack(t *testing.T) {
	gen := NewReportGenerator(ReportOptions{Encoding: EncodingSanitize, Compress: true})

	doc, err := gen.Render(sampleBest())
	require.NoError(t, err)

	text, err := NewPDFParserService().ExtractText(doc)
	require.NoError(t, err)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	assert.Contains(t, lines, "JD Match: 82%")
	assert.Contains(t, lines, "MissingKeywords: Docker")
	assert.Contains(t, lines, "Profile Summary: Strong backend engineer")
	assert.Contains(t, lines, "Suggestions: Add cloud certifications")
}

func TestReportGenerator_Render_JoinsKeywords(t *testing.T) {
	best := sampleBest()
	best.Record.MissingKeywords = []string{"Python", "SQL", "Kubernetes"}

	doc, err := NewReportGenerator(ReportOptions{}).Render(best)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(doc, []byte("(MissingKeywords: Python, SQL, Kubernetes)")))
}

func TestReportGenerator_EncodingPolicy(t *testing.T) {
	best := sampleBest()
	best.Record.Suggestions = "Ship it \U0001F680"
	best.Record.ProfileSummary = "Re\u0301sume\u0301 expert"

	t.Run("sanitize replaces unsupported characters", func(t *testing.T) {
		doc, err := NewReportGenerator(ReportOptions{Encoding: EncodingSanitize}).Render(best)
		require.NoError(t, err)

		assert.True(t, bytes.Contains(doc, []byte("(Suggestions: Ship it ?)")))
		// NFC composes e + U+0301 into é, which Windows-1252 encodes as 0xE9
		assert.True(t, bytes.Contains(doc, []byte("(Profile Summary: R\xe9sum\xe9 expert)")))
	})

	t.Run("strict rejects unsupported characters", func(t *testing.T) {
		doc, err := NewReportGenerator(ReportOptions{Encoding: EncodingStrict}).Render(best)
		require.Error(t, err)
		assert.Nil(t, doc)

		var renderErr *RenderError
		assert.True(t, errors.As(err, &renderErr))
		assert.Contains(t, err.Error(), "U+1F680")
	})

	t.Run("strict accepts Windows-1252 text", func(t *testing.T) {
		ok := sampleBest()
		ok.Record.Suggestions = "Use “quotes” and €"

		_, err := NewReportGenerator(ReportOptions{Encoding: EncodingStrict}).Render(ok)
		assert.NoError(t, err)
	})
}

func TestReportGenerator_EscapesParentheses(t *testing.T) {
	best := sampleBest()
	best.Record.ProfileSummary = `Go (Golang) \ Rust`

	doc, err := NewReportGenerator(ReportOptions{}).Render(best)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(doc, []byte(`(Profile Summary: Go \(Golang\) \\ Rust)`)))
}

func TestReportGenerator_ControlCharacters(t *testing.T) {
	best := sampleBest()
	best.Record.Suggestions = "a\u007fb\u0081c"

	doc, err := NewReportGenerator(ReportOptions{Encoding: EncodingSanitize}).Render(best)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(doc, []byte("(Suggestions: a?b?c)")))

	_, err = NewReportGenerator(ReportOptions{Encoding: EncodingStrict}).Render(best)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "U+007F")
}
