package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/smart-ats/internal/models"
)

type failingReporter struct{}

func (failingReporter) Render(models.BestMatch) ([]byte, error) {
	return nil, errors.New("disk full")
}

func newTestScreener(t *testing.T, log *zap.Logger) *Screener {
	t.Helper()
	return NewScreener(
		NewPDFParserService(),
		newTestParser(t),
		NewReportGenerator(ReportOptions{Encoding: EncodingSanitize, Compress: false}),
		log,
	)
}

func TestScreener_Screen_SelectsBestAfterAllFiles(t *testing.T) {
	screener := newTestScreener(t, nil)
	client := &fakeClient{responses: []scriptedResponse{
		{text: evaluationJSON("90", "Kafka")},
		{text: evaluationJSON("65", "Go")},
	}}

	resumes := []models.ResumeSubmission{
		{Filename: "a.pdf", Data: makePDF(t, "Resume A")},
		{Filename: "b.pdf", Data: makePDF(t, "Resume B")},
	}

	outcome, err := screener.Screen(context.Background(), client, "Backend engineer", resumes)
	require.NoError(t, err)

	assert.Equal(t, 2, client.calls())
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, 2, outcome.SuccessCount())
	assert.Empty(t, outcome.Failures())

	assert.True(t, outcome.Best.Found)
	assert.Equal(t, "a.pdf", outcome.Best.Filename)
	assert.Equal(t, "90", outcome.Best.Record.MatchPercent)
	assert.Equal(t, []string{"Kafka"}, outcome.Best.Record.MissingKeywords)

	require.NotEmpty(t, outcome.Report)
	assert.Contains(t, string(outcome.Report), "(JD Match: 90%)")
	assert.Contains(t, string(outcome.Report), "(Profile Summary: summary 90)")
	assert.NotContains(t, string(outcome.Report), "summary 65")

	assert.Contains(t, client.prompts[0], "Resume A")
	assert.Contains(t, client.prompts[0], "Backend engineer")
	assert.Contains(t, client.prompts[1], "Resume B")
}

func TestScreener_Screen_SkipsFailedFiles(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	screener := newTestScreener(t, zap.New(core))

	// Only resumes that pass extraction reach the client.
	client := &fakeClient{responses: []scriptedResponse{
		{err: &CallError{Kind: ErrTimeout, Cause: context.DeadlineExceeded}},
		{text: "{'JD Match': '99'}"},
		{text: evaluationJSON("40")},
	}}

	resumes := []models.ResumeSubmission{
		{Filename: "broken.pdf", Data: []byte("not a pdf")},
		{Filename: "slow.pdf", Data: makePDF(t, "Slow resume")},
		{Filename: "garbled.pdf", Data: makePDF(t, "Garbled resume")},
		{Filename: "ok.pdf", Data: makePDF(t, "Good resume")},
	}

	outcome, err := screener.Screen(context.Background(), client, "JD", resumes)
	require.NoError(t, err)

	assert.Equal(t, 3, client.calls())
	require.Len(t, outcome.Results, 4)

	stages := map[string]string{}
	for _, r := range outcome.Results {
		stages[r.Filename] = r.Stage
	}
	assert.Equal(t, map[string]string{
		"broken.pdf":  StageExtract,
		"slow.pdf":    StageEvaluate,
		"garbled.pdf": StageParse,
		"ok.pdf":      "",
	}, stages)

	failures := outcome.Failures()
	require.Len(t, failures, 3)
	assert.Equal(t, "broken.pdf", failures[0].Filename)
	assert.ErrorIs(t, failures[1], ErrTimeout)
	var parseErr *ParseError
	assert.True(t, errors.As(failures[2], &parseErr))

	assert.Equal(t, "ok.pdf", outcome.Best.Filename)
	assert.NotEmpty(t, outcome.Report)

	skipped := logs.FilterMessage("resume skipped").All()
	require.Len(t, skipped, 3)
	assert.Equal(t, "broken.pdf", skipped[0].ContextMap()["filename"])
}

func TestScreener_Screen_EmptyBatch(t *testing.T) {
	screener := newTestScreener(t, nil)
	client := &fakeClient{responses: []scriptedResponse{
		{err: &CallError{Kind: ErrAuth, Cause: errors.New("401")}},
	}}

	resumes := []models.ResumeSubmission{
		{Filename: "a.pdf", Data: makePDF(t, "Resume A")},
		{Filename: "b.pdf", Data: nil},
	}

	outcome, err := screener.Screen(context.Background(), client, "JD", resumes)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	require.NotNil(t, outcome)
	assert.Nil(t, outcome.Report)
	assert.False(t, outcome.Best.Found)
	assert.Len(t, outcome.Failures(), 2)
}

func TestScreener_Screen_NoResumes(t *testing.T) {
	screener := newTestScreener(t, nil)

	outcome, err := screener.Screen(context.Background(), &fakeClient{}, "JD", nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
	assert.Nil(t, outcome.Report)
}

func TestScreener_Screen_RenderFailure(t *testing.T) {
	screener := NewScreener(NewPDFParserService(), newTestParser(t), failingReporter{}, nil)
	client := &fakeClient{responses: []scriptedResponse{{text: evaluationJSON("75")}}}

	outcome, err := screener.Screen(context.Background(), client, "JD", []models.ResumeSubmission{
		{Filename: "a.pdf", Data: makePDF(t, "Resume A")},
	})

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	require.NotNil(t, outcome)
	assert.Equal(t, 1, outcome.SuccessCount())
	assert.Equal(t, "a.pdf", outcome.Best.Filename)
	assert.Nil(t, outcome.Report)
}

func TestScreener_Screen_LeavesInputUntouched(t *testing.T) {
	screener := newTestScreener(t, nil)
	client := &fakeClient{responses: []scriptedResponse{{text: evaluationJSON("70")}}}

	data := makePDF(t, "Resume A")
	resumes := []models.ResumeSubmission{{Filename: "a.pdf", Data: data}}

	_, err := screener.Screen(context.Background(), client, "JD", resumes)
	require.NoError(t, err)

	assert.Equal(t, "a.pdf", resumes[0].Filename)
	assert.Equal(t, data, resumes[0].Data)
}
