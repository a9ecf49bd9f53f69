package services

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialMissing halts a session before any resume is processed.
	ErrCredentialMissing = errors.New("api credential is missing")
	// ErrEmptyBatch means no resume in the batch was evaluated successfully.
	ErrEmptyBatch = errors.New("no successful evaluation")

	ErrNetwork = errors.New("network error")
	ErrAuth    = errors.New("authentication error")
	ErrModel   = errors.New("model error")
	ErrTimeout = errors.New("model call timed out")
)

// Processing stages reported with per-file failures.
const (
	StageExtract  = "extract"
	StageEvaluate = "evaluate"
	StageParse    = "parse"
)

// ExtractionError signals that no usable text could be read from a PDF.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("text extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("text extraction failed: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// CallError is a failed model call. Kind is one of ErrNetwork, ErrAuth,
// ErrModel or ErrTimeout, so callers can use errors.Is on it.
type CallError struct {
	Kind  error
	Cause error
}

func (e *CallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	}
	return e.Kind.Error()
}

func (e *CallError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// ParseError means the model response did not match the expected structure.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// RenderError means the report document could not be produced.
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// FileError attaches the offending filename and stage to a per-file failure.
type FileError struct {
	Filename string
	Stage    string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Filename, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
