package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/smart-ats/internal/config"
	"alfredoptarigan/smart-ats/internal/logger"
	"alfredoptarigan/smart-ats/internal/models"
	"alfredoptarigan/smart-ats/internal/services"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [resume.pdf ...]",
	Short: "Score resumes against a job description and export the best match",
	Long: `Score each PDF resume against the job description, in the order given, and
write the best match to a PDF report once every resume has been processed.
Resumes that cannot be read, evaluated or parsed are reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

var (
	evalJDFile  string
	evalJDText  string
	evalOutFile string
	evalAPIKey  string
	evalModel   string
	evalDebug   bool
)

func init() {
	evaluateCmd.Flags().StringVar(&evalJDFile, "jd", "", "Path to the job description text file, or - for stdin")
	evaluateCmd.Flags().StringVar(&evalJDText, "jd-text", "", "Job description text (alternative to --jd)")
	evaluateCmd.Flags().StringVarP(&evalOutFile, "out", "o", services.ReportFilename, "Path of the PDF report to write")
	evaluateCmd.Flags().StringVar(&evalAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	evaluateCmd.Flags().StringVar(&evalModel, "model", "", "Gemini model (overrides GEMINI_MODEL env var)")
	evaluateCmd.Flags().BoolVar(&evalDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(evalModel)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	jobDescription, err := readJobDescription(evalJDFile, evalJDText, cmd.InOrStdin())
	if err != nil {
		return err
	}

	apiKey, err := resolveAPIKey(evalAPIKey, cfg.Gemini.APIKey, stdinIsTerminal() && evalJDFile != "-", promptAPIKey)
	if err != nil {
		if errors.Is(err, services.ErrCredentialMissing) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning: no API key supplied; stopping without evaluating any resume.")
		}
		return err
	}

	log, err := logger.New(cfg.Log.JSON, evalDebug || cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()
	client, err := services.NewGeminiClient(ctx, services.GeminiOptions{
		APIKey:  apiKey,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	parser, err := services.NewResponseParser()
	if err != nil {
		return err
	}

	screener := services.NewScreener(
		services.NewPDFParserService(),
		parser,
		services.NewReportGenerator(services.ReportOptions{
			Encoding: services.EncodingPolicy(cfg.Report.Encoding),
			Compress: cfg.Report.Compress,
		}),
		log,
	)

	resumes := loadResumes(args, log)

	outcome, screenErr := screener.Screen(ctx, client, jobDescription, resumes)
	printOutcome(out, outcome)

	if screenErr != nil {
		if errors.Is(screenErr, services.ErrEmptyBatch) {
			return fmt.Errorf("no resume could be evaluated; no report written")
		}
		return screenErr
	}

	if err := os.WriteFile(evalOutFile, outcome.Report, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(out, "Report written to %s\n", evalOutFile)

	return nil
}

// loadConfig reads the environment, applies the --model override and checks
// the settings an evaluation depends on.
func loadConfig(modelOverride string) (*config.Config, error) {
	cfg, _ := config.Load()
	if modelOverride != "" {
		cfg.Gemini.Model = modelOverride
	}

	if err := cfg.ValidateScreening(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func readJobDescription(path, text string, stdin io.Reader) (string, error) {
	if path != "" && text != "" {
		return "", fmt.Errorf("cannot use --jd with --jd-text")
	}

	var jd string
	switch {
	case text != "":
		jd = text
	case path == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read job description from stdin: %w", err)
		}
		jd = string(data)
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		jd = string(data)
	default:
		return "", fmt.Errorf("a job description is required (use --jd or --jd-text)")
	}

	jd = strings.TrimSpace(jd)
	if jd == "" {
		return "", fmt.Errorf("job description is empty")
	}

	return jd, nil
}

// loadResumes reads every path in order. An unreadable file keeps its slot with
// no data so that it is reported as an extraction failure.
func loadResumes(paths []string, log *zap.Logger) []models.ResumeSubmission {
	log = logger.OrNop(log)
	resumes := make([]models.ResumeSubmission, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("cannot read resume", zap.String(logger.FieldFilename, path), zap.Error(err))
		}
		resumes = append(resumes, models.ResumeSubmission{
			Filename: filepath.Base(path),
			Data:     data,
		})
	}
	return resumes
}

func printOutcome(w io.Writer, outcome *services.BatchOutcome) {
	if outcome == nil {
		return
	}

	for _, r := range outcome.Results {
		if r.Status != models.ResultEvaluated {
			fmt.Fprintf(w, "[failed] %v\n", r.Err)
			continue
		}

		record := r.Record
		fmt.Fprintf(w, "[ok]     %s: %s%%\n", r.Filename, record.MatchPercent)
		if len(record.MissingKeywords) > 0 {
			fmt.Fprintf(w, "         Missing keywords: %s\n", strings.Join(record.MissingKeywords, ", "))
		} else {
			fmt.Fprintln(w, "         No missing keywords detected")
		}
		fmt.Fprintf(w, "         Profile summary: %s\n", record.ProfileSummary)
		fmt.Fprintf(w, "         Suggestions: %s\n", record.Suggestions)
	}

	if outcome.Best.Found {
		best := outcome.Best
		fmt.Fprintf(w, "\nBest match: %s (%s%%)\n", best.Filename, best.Record.MatchPercent)
	}
}
