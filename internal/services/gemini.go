package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/smart-ats/internal/logger"
)

const (
	defaultGeminiModel   = "gemini-2.5-flash"
	defaultGeminiTimeout = 45 * time.Second
	maxLogPreview        = 200
)

// EvaluationClient sends one prompt to a hosted model and returns its raw text.
type EvaluationClient interface {
	Evaluate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// ClientFactory builds an EvaluationClient bound to one credential.
type ClientFactory func(ctx context.Context, apiKey string) (EvaluationClient, error)

type GeminiOptions struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// contentGenerator is the subset of *genai.Models used by the client.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiClient struct {
	models    contentGenerator
	modelName string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGeminiClient creates a client for the Gemini API. The credential is taken
// from opts only.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (EvaluationClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrCredentialMissing
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiClient(client.Models, opts), nil
}

func newGeminiClient(models contentGenerator, opts GeminiOptions) *geminiClient {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultGeminiModel
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultGeminiTimeout
	}

	return &geminiClient{
		models:    models,
		modelName: model,
		timeout:   timeout,
		logger:    logger.WithCommonFields(opts.Logger, "gemini", model),
	}
}

// NewGeminiClientFactory returns a factory that creates one Gemini client per
// credential using the shared model settings in opts. opts.APIKey is ignored.
func NewGeminiClientFactory(opts GeminiOptions) ClientFactory {
	return func(ctx context.Context, apiKey string) (EvaluationClient, error) {
		o := opts
		o.APIKey = apiKey
		return NewGeminiClient(ctx, o)
	}
}

func (g *geminiClient) Model() string {
	return g.modelName
}

// Evaluate makes a single attempt bounded by the configured timeout. Failures
// are returned as *CallError.
func (g *geminiClient) Evaluate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	temperature := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.Duration("timeout", g.timeout),
	)

	started := time.Now()
	resp, err := g.models.GenerateContent(callCtx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		callErr := classifyCallError(callCtx, err)
		g.logger.Warn("gemini call failed", zap.Error(callErr), zap.Duration("elapsed", time.Since(started)))
		return "", callErr
	}

	if resp == nil {
		return "", &CallError{Kind: ErrModel, Cause: errors.New("nil response")}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &CallError{Kind: ErrModel, Cause: fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &CallError{Kind: ErrModel, Cause: errors.New("no text content in response")}
	}

	g.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", logger.TruncateForLog(text, maxLogPreview)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return text, nil
}

func classifyCallError(ctx context.Context, err error) *CallError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &CallError{Kind: ErrTimeout, Cause: err}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &CallError{Kind: classifyAPIError(apiErr), Cause: err}
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &CallError{Kind: classifyAPIError(*apiErrPtr), Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &CallError{Kind: ErrTimeout, Cause: err}
	}

	return &CallError{Kind: ErrNetwork, Cause: err}
}

func classifyAPIError(apiErr genai.APIError) error {
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusBadRequest:
		msg := strings.ToLower(apiErr.Message)
		if strings.Contains(msg, "api key") || strings.Contains(msg, "api_key") {
			return ErrAuth
		}
		return ErrModel
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrTimeout
	default:
		return ErrModel
	}
}
