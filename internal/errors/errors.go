// Package errors declares valknut's error taxonomy (§7): one exported type
// per error kind, each carrying a category tag, the offending path or
// entity ID, the underlying cause, and a one-sentence remediation hint.
package errors

import (
	"fmt"
	"time"

	"github.com/sibyllinesoft/valknut/internal/types"
)

type ErrorKind string

const (
	KindConfig                ErrorKind = "config"
	KindDiscovery             ErrorKind = "discovery"
	KindParse                 ErrorKind = "parse"
	KindExtractor             ErrorKind = "extractor"
	KindTimeout               ErrorKind = "timeout"
	KindCache                 ErrorKind = "cache"
	KindCalibrationNonConverg ErrorKind = "calibration_non_convergence"
	KindCancelled             ErrorKind = "cancelled"
)

// ConfigError reports invalid or inconsistent configuration. Fatal at
// startup (exit 2).
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Hint       string
}

func NewConfigError(field, value, hint string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err, Hint: hint}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: field %s=%q invalid: %v (%s)", e.Field, e.Value, e.Underlying, e.Hint)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// DiscoveryError reports a missing or unreadable root path. Fatal (exit 2).
type DiscoveryError struct {
	Path       string
	Underlying error
}

func NewDiscoveryError(path string, err error) *DiscoveryError {
	return &DiscoveryError{Path: path, Underlying: err}
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: root %s unreadable: %v (check the path exists and is readable)", e.Path, e.Underlying)
}

func (e *DiscoveryError) Unwrap() error { return e.Underlying }

// ParseError reports a single-file parse failure. Recovered: the file is
// recorded with an `unparseable` issue and the pipeline continues.
type ParseError struct {
	Path       string
	Line       int
	Column     int
	Underlying error
	Timestamp  time.Time
}

func NewParseError(path string, line, column int, err error) *ParseError {
	return &ParseError{Path: path, Line: line, Column: column, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s:%d:%d: %v (file will be recorded as unparseable, analysis continues)",
		e.Path, e.Line, e.Column, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// ExtractorError reports a single extractor failing on a single entity.
// Recovered: that feature is skipped, other extractors still run.
type ExtractorError struct {
	Extractor  string
	EntityID   types.EntityID
	Underlying error
}

func NewExtractorError(extractor string, entityID types.EntityID, err error) *ExtractorError {
	return &ExtractorError{Extractor: extractor, EntityID: entityID, Underlying: err}
}

func (e *ExtractorError) Error() string {
	return fmt.Sprintf("extractor %s failed on %s: %v (feature skipped for this entity)",
		e.Extractor, e.EntityID, e.Underlying)
}

func (e *ExtractorError) Unwrap() error { return e.Underlying }

// TimeoutError reports a per-file soft timeout expiring. Recovered:
// partial features are preserved and a `timeout` issue is emitted.
type TimeoutError struct {
	Path    string
	Timeout time.Duration
}

func NewTimeoutError(path string, timeout time.Duration) *TimeoutError {
	return &TimeoutError{Path: path, Timeout: timeout}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s exceeded soft budget %s (raise analysis.files soft timeout or split the file)",
		e.Path, e.Timeout)
}

// CacheError reports a read/write failure against the content-addressed
// cache. Recovered: treated as a miss, warned once per run.
type CacheError struct {
	Key        string
	Underlying error
}

func NewCacheError(key string, err error) *CacheError {
	return &CacheError{Key: key, Underlying: err}
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache: entry %s unreadable: %v (treated as a miss)", e.Key, e.Underlying)
}

func (e *CacheError) Unwrap() error { return e.Underlying }

// CalibrationNonConvergence reports auto-calibration failing to land in the
// target band within its iteration cap. Recovered: defaults are restored.
type CalibrationNonConvergence struct {
	Iterations      int
	FinalSimilarity float64
	FinalVolume     float64
}

func NewCalibrationNonConvergence(iterations int, similarity, volume float64) *CalibrationNonConvergence {
	return &CalibrationNonConvergence{Iterations: iterations, FinalSimilarity: similarity, FinalVolume: volume}
}

func (e *CalibrationNonConvergence) Error() string {
	return fmt.Sprintf("lsh calibration: did not converge after %d iterations (similarity=%.3f volume=%.2f/kloc); falling back to defaults",
		e.Iterations, e.FinalSimilarity, e.FinalVolume)
}

// CancelledError reports a clean cooperative-cancellation unwind.
// Partial results are emitted (exit 130).
type CancelledError struct {
	Stage string
}

func NewCancelledError(stage string) *CancelledError {
	return &CancelledError{Stage: stage}
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("cancelled during %s stage; partial results emitted", e.Stage)
}

// MultiError aggregates independently recovered errors from a single stage
// so callers can log or report all of them without aborting the run.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors, first: %v", len(e.Errors), e.Errors[0])
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }

func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *MultiError) HasErrors() bool { return len(e.Errors) > 0 }
