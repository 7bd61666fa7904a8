package domain

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Sentinel errors for the failure classes of generation and validation.
var (
	// ErrConfigInvalid is returned for a malformed parameter combination,
	// always before any I/O happens.
	ErrConfigInvalid = errors.New("config invalid")

	// ErrIOFailure is returned when a corpus file cannot be written or read.
	ErrIOFailure = errors.New("io failure")

	// ErrNotFound is returned when an expected input file is absent.
	ErrNotFound = errors.New("not found")

	// ErrEmptyInput is returned when there are zero usable lines or tokens.
	ErrEmptyInput = errors.New("empty input")
)

// CorpusError carries the failure class, the file involved and the cause.
type CorpusError struct {
	Kind error
	Path string
	Err  error
}

func (e *CorpusError) Error() string {
	msg := e.Kind.Error()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *CorpusError) Is(target error) bool {
	return target == e.Kind
}

func (e *CorpusError) Unwrap() error {
	return e.Err
}

func NewConfigError(field, message string) *CorpusError {
	return &CorpusError{Kind: ErrConfigInvalid, Err: fmt.Errorf("%s: %s", field, message)}
}

func NewIOError(path string, err error) *CorpusError {
	return &CorpusError{Kind: ErrIOFailure, Path: path, Err: err}
}

func NewNotFoundError(path string) *CorpusError {
	return &CorpusError{Kind: ErrNotFound, Path: path}
}

func NewEmptyInputError(path, message string) *CorpusError {
	return &CorpusError{Kind: ErrEmptyInput, Path: path, Err: errors.New(message)}
}

// OpenError maps an os.Open failure to NotFound or IOFailure.
func OpenError(path string, err error) *CorpusError {
	if os.IsNotExist(err) {
		return NewNotFoundError(path)
	}
	return NewIOError(path, err)
}

// Classify returns a short code for err, suitable as a log field.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigInvalid):
		return "config_invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrIOFailure):
		return "io"
	}
	return "unknown"
}
