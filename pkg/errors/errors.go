// Package errors provides structured error handling for REDLINE.
// Errors carry a code for programmatic handling plus key/value context.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies an error class.
type Code string

const (
	// Classification errors (1xx): file unreadable or format undeterminable.
	CodeFileNotFound   Code = "E101"
	CodeFilePermission Code = "E102"
	CodeUnknownFormat  Code = "E103"
	CodeNotStooq       Code = "E104"

	// Format errors (2xx): content cannot be parsed into any table.
	CodeParseFailed   Code = "E201"
	CodeEmptyTable    Code = "E202"
	CodeMissingColumn Code = "E203"

	// Store errors (3xx): fatal for the current run.
	CodeStoreOpen   Code = "E301"
	CodeStoreCreate Code = "E302"
	CodeStoreAppend Code = "E303"
	CodeStoreQuery  Code = "E304"

	// System errors (4xx).
	CodeCanceled Code = "E401"

	CodeUnknown Code = "E999"
)

// Error is the base error type for all REDLINE errors.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps an existing error with a code. Returns nil for a nil cause.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// IsCode checks whether an error carries a specific code.
func IsCode(err error, code Code) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// GetCode extracts the code from an error.
func GetCode(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeUnknown
}

// IsClassification reports whether the error is a per-file classification
// failure (recoverable: skip the file and continue).
func IsClassification(err error) bool {
	switch GetCode(err) {
	case CodeFileNotFound, CodeFilePermission, CodeUnknownFormat, CodeNotStooq:
		return true
	}
	return false
}

// IsFormat reports whether the error is a per-file parse failure
// (recoverable: skip the file and continue).
func IsFormat(err error) bool {
	switch GetCode(err) {
	case CodeParseFailed, CodeEmptyTable, CodeMissingColumn:
		return true
	}
	return false
}

// IsStore reports whether the error came from the persistent store.
// Store errors are fatal for the current run.
func IsStore(err error) bool {
	switch GetCode(err) {
	case CodeStoreOpen, CodeStoreCreate, CodeStoreAppend, CodeStoreQuery:
		return true
	}
	return false
}

// --- Convenience constructors ---

// FileNotFound creates a file not found error.
func FileNotFound(path string) *Error {
	return New(CodeFileNotFound, "file not found").WithContext("path", path)
}

// UnknownFormat creates an undeterminable-format error.
func UnknownFormat(path string) *Error {
	return New(CodeUnknownFormat, "cannot determine file format").WithContext("path", path)
}

// NotStooq creates an invalid-Stooq-header error.
func NotStooq(path string, missing []string) *Error {
	return New(CodeNotStooq, "missing required header tokens").
		WithContext("path", path).
		WithContext("missing", missing)
}

// ParseError creates a parse failure for a whole file.
func ParseError(path string, err error) *Error {
	return Wrap(err, CodeParseFailed, "cannot parse file as a table").
		WithContext("path", path)
}

// MultiError collects multiple errors.
type MultiError struct {
	Errors []error
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(m.Errors)))
	for i, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if any errors were collected.
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// Combined returns nil if no errors, the single error if one, or the
// MultiError otherwise.
func (m *MultiError) Combined() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}
