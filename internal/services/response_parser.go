package services

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"alfredoptarigan/smart-ats/internal/models"
)

//go:embed schema/evaluation.schema.json
var evaluationSchema string

type ResponseParser interface {
	Parse(raw string) (models.EvaluationRecord, error)
}

type responseParser struct {
	schema *gojsonschema.Schema
}

// NewResponseParser compiles the embedded evaluation schema.
func NewResponseParser() (ResponseParser, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(evaluationSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile evaluation schema: %w", err)
	}

	return &responseParser{schema: schema}, nil
}

// Parse turns a model response into an EvaluationRecord. The response must be a
// single JSON object, optionally wrapped in one markdown code fence. Anything
// ambiguous is rejected with a *ParseError; no partial record is returned.
func (p *responseParser) Parse(raw string) (models.EvaluationRecord, error) {
	payload, err := unwrapCodeFence(raw)
	if err != nil {
		return models.EvaluationRecord{}, err
	}

	if err := checkSingleObject(payload); err != nil {
		return models.EvaluationRecord{}, err
	}

	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return models.EvaluationRecord{}, &ParseError{Message: "response is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		fields := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			fields = append(fields, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return models.EvaluationRecord{}, &ParseError{Message: "response does not match schema: " + strings.Join(fields, "; ")}
	}

	var record models.EvaluationRecord
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&record); err != nil {
		return models.EvaluationRecord{}, &ParseError{Message: "cannot decode response", Cause: err}
	}

	score, err := ParseMatchPercent(record.MatchPercent)
	if err != nil {
		return models.EvaluationRecord{}, &ParseError{Message: "invalid JD Match", Cause: err}
	}
	record.MatchPercent = strconv.Itoa(score)

	return record, nil
}

// ParseMatchPercent reads a percentage such as "82" or "82%" as an integer in
// the range 0..100.
func ParseMatchPercent(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "%"))
	if trimmed == "" {
		return 0, fmt.Errorf("empty match percentage")
	}

	score, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("match percentage %q is not an integer", value)
	}
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("match percentage %d is out of range 0-100", score)
	}

	return score, nil
}

func unwrapCodeFence(raw string) ([]byte, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &ParseError{Message: "empty response"}
	}

	if !strings.HasPrefix(text, "```") {
		return []byte(text), nil
	}

	if !strings.HasSuffix(text, "```") || len(text) < 6 {
		return nil, &ParseError{Message: "unterminated code fence"}
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	newline := strings.Index(inner, "\n")
	if newline < 0 {
		return nil, &ParseError{Message: "malformed code fence"}
	}

	lang := strings.TrimSpace(inner[:newline])
	if lang != "" && !strings.EqualFold(lang, "json") {
		return nil, &ParseError{Message: fmt.Sprintf("unexpected code fence language %q", lang)}
	}

	body := strings.TrimSpace(inner[newline+1:])
	if strings.Contains(body, "```") {
		return nil, &ParseError{Message: "more than one code fence in response"}
	}

	return []byte(body), nil
}

// checkSingleObject rejects duplicate top-level keys and trailing data, which
// encoding/json would otherwise accept silently.
func checkSingleObject(payload []byte) error {
	dec := json.NewDecoder(bytes.NewReader(payload))

	tok, err := dec.Token()
	if err != nil {
		return &ParseError{Message: "response is not valid JSON", Cause: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return &ParseError{Message: "response is not a JSON object"}
	}

	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &ParseError{Message: "response is not valid JSON", Cause: err}
		}

		key, ok := tok.(string)
		if !ok {
			return &ParseError{Message: "response is not valid JSON"}
		}
		if _, dup := seen[key]; dup {
			return &ParseError{Message: fmt.Sprintf("duplicate key %q", key)}
		}
		seen[key] = struct{}{}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return &ParseError{Message: "response is not valid JSON", Cause: err}
		}
	}

	if _, err := dec.Token(); err != nil {
		return &ParseError{Message: "response is not valid JSON", Cause: err}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &ParseError{Message: "unexpected data after JSON object"}
	}

	return nil
}
