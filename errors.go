package labordash

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownDataset   = errors.New("unknown dataset")
	ErrNoAttempts       = errors.New("no sources configured")
	ErrEmptyTable       = errors.New("source returned no rows")
	ErrValidationFailed = errors.New("validation failed")
	ErrTimeout          = errors.New("operation timed out")
)

// StageError reports the failure of a named stage of a view pipeline.
type StageError struct {
	Pipeline string
	Stage    string
	Op       string
	Err      error
}

func (e *StageError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("pipeline %s: stage %s: %s: %v", e.Pipeline, e.Stage, e.Op, e.Err)
	}
	return fmt.Sprintf("pipeline %s: %s: %v", e.Pipeline, e.Op, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewStageError(pipeline, stage, op string, err error) *StageError {
	return &StageError{Pipeline: pipeline, Stage: stage, Op: op, Err: err}
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UnavailableError means a source could not produce raw data: unreachable,
// error status, timeout or a body that could not be decoded.
type UnavailableError struct {
	Dataset string
	Source  string
	Reason  string
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataset %s unavailable from %s: %s: %v", e.Dataset, e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("dataset %s unavailable from %s: %s", e.Dataset, e.Source, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func NewUnavailableError(dataset, source, reason string, err error) *UnavailableError {
	return &UnavailableError{Dataset: dataset, Source: source, Reason: reason, Err: err}
}

// SchemaMismatchError means normalization could not produce the dataset's
// schema because required columns are absent.
type SchemaMismatchError struct {
	Dataset string
	Source  string
	Missing []string
	Err     error
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("dataset %s: schema mismatch", e.Dataset)
	if e.Source != "" {
		msg += " from " + e.Source
	}
	if len(e.Missing) > 0 {
		msg += ": missing columns " + strings.Join(e.Missing, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaMismatchError) Unwrap() error {
	return e.Err
}

func NewSchemaMismatchError(dataset string, missing []string, err error) *SchemaMismatchError {
	return &SchemaMismatchError{Dataset: dataset, Missing: missing, Err: err}
}

// DeriveError wraps a failed derived-column step.
type DeriveError struct {
	Deriver string
	Message string
	Err     error
}

func (e *DeriveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("derive error from %s: %s: %v", e.Deriver, e.Message, e.Err)
	}
	return fmt.Sprintf("derive error from %s: %s", e.Deriver, e.Message)
}

func (e *DeriveError) Unwrap() error {
	return e.Err
}

func NewDeriveError(deriver, message string, err error) *DeriveError {
	return &DeriveError{Deriver: deriver, Message: message, Err: err}
}
