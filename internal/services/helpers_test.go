package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/require"
)

// makePDF builds an uncompressed PDF with one page per entry. An empty entry
// produces a page without text.
func makePDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Arial", "", 12)
	for _, text := range pages {
		doc.AddPage()
		if text != "" {
			doc.Cell(0, 10, text)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func evaluationJSON(percent string, keywords ...string) string {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		quoted = append(quoted, fmt.Sprintf("%q", k))
	}
	return fmt.Sprintf(`{"JD Match":%q,"MissingKeywords":[%s],"Profile Summary":"summary %s","Suggestions":"suggestions %s"}`,
		percent, joinComma(quoted), percent, percent)
}

func joinComma(items []string) string {
	var b bytes.Buffer
	for i, item := range items {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(item)
	}
	return b.String()
}

type scriptedResponse struct {
	text string
	err  error
}

// fakeClient answers prompts in call order and records every prompt it saw.
// onEvaluate, when set, runs before each answer.
type fakeClient struct {
	mu         sync.Mutex
	responses  []scriptedResponse
	prompts    []string
	onEvaluate func()
}

func (f *fakeClient) Evaluate(ctx context.Context, prompt string) (string, error) {
	if f.onEvaluate != nil {
		f.onEvaluate()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if idx >= len(f.responses) {
		return "", &CallError{Kind: ErrModel, Cause: fmt.Errorf("no scripted response %d", idx)}
	}
	return f.responses[idx].text, f.responses[idx].err
}

func (f *fakeClient) Model() string {
	return "fake-model"
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func newTestParser(t *testing.T) ResponseParser {
	t.Helper()
	parser, err := NewResponseParser()
	require.NoError(t, err)
	return parser
}
