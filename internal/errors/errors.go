// Package errors defines the typed failures shared across the codec, legacy
// mapper, and import pipeline, plus a collector that isolates per-record
// failures so one malformed record never aborts a batch.
package errors

import (
	"fmt"
	"sync"
	"time"
)

// Severity represents how serious a recorded failure is.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// DecodeError reports a structurally unparseable serialized envelope. It
// carries the raw cause so the caller can decide whether to retry, prompt,
// or abort. Malformed individual fields never produce one; they degrade to
// defaults inside the codec instead.
type DecodeError struct {
	Format string
	Cause  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: malformed envelope: %v", e.Format, e.Cause)
}

// Unwrap exposes the raw cause.
func (e *DecodeError) Unwrap() error { return e.Cause }

// NewDecodeError wraps a structural parse failure for the given format.
func NewDecodeError(format string, cause error) *DecodeError {
	return &DecodeError{Format: format, Cause: cause}
}

// RecordError ties a failure to one record of a batch import or export.
type RecordError struct {
	RecordID  string
	Index     int
	Message   string
	Severity  Severity
	Timestamp time.Time
}

// Error implements the error interface.
func (re *RecordError) Error() string {
	return fmt.Sprintf("record %s (#%d): %s: %s", re.RecordID, re.Index, re.Severity, re.Message)
}

// RecordCollector accumulates per-record failures during batch operations.
// Batches continue past failed records; the collector is how callers find out
// what was skipped.
type RecordCollector struct {
	recordErrors []RecordError
	errors       []error
	mutex        sync.RWMutex
}

// NewRecordCollector creates an empty collector.
func NewRecordCollector() *RecordCollector {
	return &RecordCollector{
		recordErrors: make([]RecordError, 0),
		errors:       make([]error, 0),
	}
}

// Add records a per-record failure.
func (rc *RecordCollector) Add(err RecordError) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	err.Timestamp = time.Now()
	rc.recordErrors = append(rc.recordErrors, err)
}

// AddError records a general (non record-scoped) failure.
func (rc *RecordCollector) AddError(err error) {
	if err == nil {
		return
	}
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	rc.errors = append(rc.errors, err)
}

// RecordErrors returns a copy of all per-record failures.
func (rc *RecordCollector) RecordErrors() []RecordError {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()
	result := make([]RecordError, len(rc.recordErrors))
	copy(result, rc.recordErrors)
	return result
}

// All returns every collected failure, record-scoped and general.
func (rc *RecordCollector) All() []error {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()

	all := make([]error, 0, len(rc.recordErrors)+len(rc.errors))
	for i := range rc.recordErrors {
		all = append(all, &rc.recordErrors[i])
	}
	all = append(all, rc.errors...)
	return all
}

// HasErrors reports whether anything was collected.
func (rc *RecordCollector) HasErrors() bool {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()
	return len(rc.recordErrors) > 0 || len(rc.errors) > 0
}

// Clear drops all collected failures.
func (rc *RecordCollector) Clear() {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	rc.recordErrors = rc.recordErrors[:0]
	rc.errors = rc.errors[:0]
}
