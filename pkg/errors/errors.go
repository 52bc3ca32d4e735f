// Package errors provides structured error types for annoview.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so the CLI, the HTTP API and the redraw controller can react to it
// without string matching.
//
// # Fault Classes
//
// Three codes describe the fault classes of the layout pipeline:
//   - DOCUMENT_INTEGRITY: a record references a span or event id that is
//     absent from the document. The current pass is aborted and the previous
//     layout stays on screen.
//   - TRANSPORT: a document fetch failed. Transient and non-fatal.
//   - PROTOCOL: client and server disagree on the protocol version. Fatal
//     for the session.
//
// # Usage
//
//	err := errors.Integrity("E9", "modification M1 targets unknown id %q", "E9")
//	if errors.Is(err, errors.ErrCodeDocumentIntegrity) {
//	    // keep the last good layout
//	}
package errors

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Pipeline faults
	ErrCodeDocumentIntegrity Code = "DOCUMENT_INTEGRITY"
	ErrCodeTransport         Code = "TRANSPORT"
	ErrCodeProtocol          Code = "PROTOCOL"

	// Input validation errors
	ErrCodeMalformedDocument Code = "MALFORMED_DOCUMENT"
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidVizType    Code = "INVALID_VIZ_TYPE"
	ErrCodeInvalidName       Code = "INVALID_NAME"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	// ID names the offending span or event for DOCUMENT_INTEGRITY faults.
	ID string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Integrity creates a DOCUMENT_INTEGRITY fault for the unresolved id.
func Integrity(id string, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeDocumentIntegrity,
		Message: fmt.Sprintf(format, args...),
		ID:      id,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// OffendingID returns the id carried by a DOCUMENT_INTEGRITY fault.
func OffendingID(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.ID
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// DisplayMessage returns the user message escaped for inclusion in markup.
// Document text that ends up in an error message is shown literally.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	return EscapeText(UserMessage(err))
}

// EscapeText escapes s so it renders as literal text inside XML or HTML.
func EscapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Transient reports whether err is a fault the caller may retry with a fresh request.
func Transient(err error) bool {
	return Is(err, ErrCodeTransport)
}
