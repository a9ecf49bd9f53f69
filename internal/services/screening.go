package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"alfredoptarigan/smart-ats/internal/logger"
	"alfredoptarigan/smart-ats/internal/models"
)

// FileResult is the outcome of one resume. Record is set only when Status is
// models.ResultEvaluated; Stage and Err only when it is models.ResultFailed.
type FileResult struct {
	Filename string
	Status   models.ResultStatus
	Stage    string
	Err      error
	Record   *models.EvaluationRecord
}

// BatchOutcome is available only once every resume of the batch was handled.
type BatchOutcome struct {
	Results []FileResult
	Best    models.BestMatch
	Report  []byte
}

// SuccessCount returns the number of resumes that produced a record.
func (o *BatchOutcome) SuccessCount() int {
	n := 0
	for _, r := range o.Results {
		if r.Status == models.ResultEvaluated {
			n++
		}
	}
	return n
}

// Failures returns the per-file errors of the batch in upload order.
func (o *BatchOutcome) Failures() []*FileError {
	var failures []*FileError
	for _, r := range o.Results {
		if r.Status != models.ResultFailed {
			continue
		}
		var fileErr *FileError
		if errors.As(r.Err, &fileErr) {
			failures = append(failures, fileErr)
			continue
		}
		failures = append(failures, &FileError{Filename: r.Filename, Stage: r.Stage, Err: r.Err})
	}
	return failures
}

type Screener struct {
	extractor PDFParserService
	prompts   *PromptBuilder
	parser    ResponseParser
	reporter  ReportGenerator
	logger    *zap.Logger
}

func NewScreener(
	extractor PDFParserService,
	parser ResponseParser,
	reporter ReportGenerator,
	log *zap.Logger,
) *Screener {
	return &Screener{
		extractor: extractor,
		prompts:   NewPromptBuilder(),
		parser:    parser,
		reporter:  reporter,
		logger:    logger.OrNop(log),
	}
}

// Screen evaluates resumes one at a time in upload order. A failure on one
// resume is recorded against its filename and the batch moves on. When no
// resume succeeds Screen returns ErrEmptyBatch and renders nothing. A render
// failure is returned as *RenderError together with the per-file results.
// The resumes slice is only read.
func (s *Screener) Screen(
	ctx context.Context,
	client EvaluationClient,
	jobDescription string,
	resumes []models.ResumeSubmission,
) (*BatchOutcome, error) {
	log := logger.WithCommonFields(s.logger, "gemini", client.Model())
	outcome := &BatchOutcome{
		Results: make([]FileResult, 0, len(resumes)),
		Best:    models.NoMatch(),
	}

	var candidates []models.Candidate
	for _, resume := range resumes {
		result := s.screenOne(ctx, client, jobDescription, resume, log)
		outcome.Results = append(outcome.Results, result)
		if result.Status == models.ResultEvaluated {
			candidates = append(candidates, models.Candidate{Filename: result.Filename, Record: *result.Record})
		}
	}

	if len(candidates) == 0 {
		log.Warn("no resume evaluated successfully", zap.Int("resumes", len(resumes)))
		return outcome, ErrEmptyBatch
	}

	outcome.Best = SelectBest(candidates)
	log.Info("best match selected",
		zap.String(logger.FieldFilename, outcome.Best.Filename),
		zap.String("match_percent", outcome.Best.Record.MatchPercent),
		zap.Int("evaluated", len(candidates)),
		zap.Int("resumes", len(resumes)),
	)

	report, err := s.reporter.Render(outcome.Best)
	if err != nil {
		log.Error("failed to render report", zap.Error(err))
		var renderErr *RenderError
		if !errors.As(err, &renderErr) {
			err = &RenderError{Message: "report generation failed", Cause: err}
		}
		return outcome, err
	}
	outcome.Report = report

	return outcome, nil
}

func (s *Screener) screenOne(
	ctx context.Context,
	client EvaluationClient,
	jobDescription string,
	resume models.ResumeSubmission,
	log *zap.Logger,
) FileResult {
	log = log.With(zap.String(logger.FieldFilename, resume.Filename))

	fail := func(stage string, err error) FileResult {
		log.Warn("resume skipped", zap.String("stage", stage), zap.Error(err))
		return FileResult{
			Filename: resume.Filename,
			Status:   models.ResultFailed,
			Stage:    stage,
			Err:      &FileError{Filename: resume.Filename, Stage: stage, Err: err},
		}
	}

	text, err := s.extractor.ExtractText(resume.Data)
	if err != nil {
		return fail(StageExtract, err)
	}

	prompt := s.prompts.BuildATSPrompt(text, jobDescription)

	raw, err := client.Evaluate(ctx, prompt)
	if err != nil {
		return fail(StageEvaluate, err)
	}

	record, err := s.parser.Parse(raw)
	if err != nil {
		log.Debug("unparseable model response", zap.String("response_preview", logger.TruncateForLog(raw, maxLogPreview)))
		return fail(StageParse, err)
	}

	log.Info("resume evaluated", zap.String("match_percent", record.MatchPercent))
	return FileResult{
		Filename: resume.Filename,
		Status:   models.ResultEvaluated,
		Record:   &record,
	}
}
