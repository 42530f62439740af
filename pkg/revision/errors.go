package revision

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	ErrMalformedRecord  = errors.New("malformed record")
	ErrInvalidPolicy    = errors.New("invalid retention policy")
	ErrUnorderedHistory = errors.New("history not ordered newest-first")
)

// MalformedRecordError represents an input row that could not be parsed into
// a Record. The row is excluded from its history; the batch continues.
type MalformedRecordError struct {
	Line  int    // 1-based input row number
	Field string // Column that failed ("id", "name", "timestamp")
	Value string // Raw cell value
	Cause error  // Underlying parse error, may be nil
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed record [line=%d, field=%s, value=%q]: %v", e.Line, e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("malformed record [line=%d, field=%s, value=%q]", e.Line, e.Field, e.Value)
}

// Unwrap returns the underlying cause error.
func (e *MalformedRecordError) Unwrap() error {
	return e.Cause
}

// Is matches ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// NewMalformedRecordError creates a new MalformedRecordError.
func NewMalformedRecordError(line int, field, value string, cause error) *MalformedRecordError {
	return &MalformedRecordError{
		Line:  line,
		Field: field,
		Value: value,
		Cause: cause,
	}
}

// PolicyViolation describes one rejected policy setting.
type PolicyViolation struct {
	Field   string // Option name (e.g., "keep-last")
	Message string // Human-readable reason
}

// String returns "field: message".
func (v PolicyViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// InvalidPolicyError collects every violation found while validating a
// retention policy. It is returned before any history is processed.
type InvalidPolicyError struct {
	Violations []PolicyViolation
}

// Error implements the error interface.
func (e *InvalidPolicyError) Error() string {
	switch len(e.Violations) {
	case 0:
		return "invalid retention policy"
	case 1:
		return fmt.Sprintf("invalid retention policy: %s", e.Violations[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("invalid retention policy (%d violations):", len(e.Violations)))
	for _, v := range e.Violations {
		sb.WriteString("\n  - ")
		sb.WriteString(v.String())
	}
	return sb.String()
}

// Is matches ErrInvalidPolicy.
func (e *InvalidPolicyError) Is(target error) bool {
	return target == ErrInvalidPolicy
}

// NewInvalidPolicyError creates a new InvalidPolicyError.
func NewInvalidPolicyError(violations ...PolicyViolation) *InvalidPolicyError {
	return &InvalidPolicyError{Violations: violations}
}

// UnorderedHistoryError reports a history whose entries are not newest-first.
type UnorderedHistoryError struct {
	ParentID int64 // History owner
	Index    int   // First entry newer than its predecessor
}

// Error implements the error interface.
func (e *UnorderedHistoryError) Error() string {
	return fmt.Sprintf("unordered history [parent_id=%d]: entry %d is newer than entry %d", e.ParentID, e.Index, e.Index-1)
}

// Is matches ErrUnorderedHistory.
func (e *UnorderedHistoryError) Is(target error) bool {
	return target == ErrUnorderedHistory
}

// NewUnorderedHistoryError creates a new UnorderedHistoryError.
func NewUnorderedHistoryError(parentID int64, index int) *UnorderedHistoryError {
	return &UnorderedHistoryError{
		ParentID: parentID,
		Index:    index,
	}
}

// StorageError represents a failure reading input from, or writing results
// to, a storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "csv", ...)
	Operation string // Operation that failed ("open", "query", "insert", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// ExportError represents a failure rendering or writing a report.
type ExportError struct {
	Format  string // Export format ("json", "csv", "sqlite", ...)
	Records int    // Number of records being exported
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, records=%d]: %v", e.Format, e.Records, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, records int, cause error) *ExportError {
	return &ExportError{
		Format:  format,
		Records: records,
		Cause:   cause,
	}
}
