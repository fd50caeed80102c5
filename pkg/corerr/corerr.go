// Package corerr defines the closed set of error kinds raised by the
// reasoning-and-planning core. Every error returned across a stage
// boundary is a value wrapping one of these sentinels; there is no
// exceptional control flow between stages.
package corerr

import (
	"errors"
	"fmt"
)

// Kind tags one of the nine error categories the core can raise.
type Kind string

const (
	// KindProviderUnavailable means the LLM layer could not be reached
	// (transport or authentication failure).
	KindProviderUnavailable Kind = "provider_unavailable"
	// KindSchemaInvalid means an LLM call returned output that failed
	// structural validation against the requested schema.
	KindSchemaInvalid Kind = "schema_invalid"
	// KindAmbiguousUtterance means the interpreter could not derive a
	// meta-structure for the utterance.
	KindAmbiguousUtterance Kind = "ambiguous_utterance"
	// KindNoCapability means no planner rule exists for a (domain, verb) pair.
	KindNoCapability Kind = "no_capability"
	// KindValidationFailed means a goal's params failed planner validation.
	KindValidationFailed Kind = "validation_failed"
	// KindNoTool means the resolver's domain-locked search found no tool.
	KindNoTool Kind = "no_tool"
	// KindPreconditionUnmet means a tool precondition (focus, unlocked
	// screen, etc.) was not satisfied at execution time.
	KindPreconditionUnmet Kind = "precondition_unmet"
	// KindToolFailure means a tool reported status="error".
	KindToolFailure Kind = "tool_failure"
	// KindCancelled means the request was cancelled or timed out.
	KindCancelled Kind = "cancelled"
)

// Error is a tagged, wrapped error carrying one closed Kind plus a
// human-readable message and an optional cause.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap constructs an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

// Kind returns the error's tagged category.
func (e *Error) Kind() Kind { return e.kind }

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match against a bare Kind sentinel created with New
// and no cause, comparing only the kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == other.kind
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return "", false
}

// Sentinel values for errors.Is comparisons against a specific kind,
// e.g. errors.Is(err, corerr.NoCapability).
var (
	ProviderUnavailable = &Error{kind: KindProviderUnavailable}
	SchemaInvalid       = &Error{kind: KindSchemaInvalid}
	AmbiguousUtterance  = &Error{kind: KindAmbiguousUtterance}
	NoCapability        = &Error{kind: KindNoCapability}
	ValidationFailed    = &Error{kind: KindValidationFailed}
	NoTool              = &Error{kind: KindNoTool}
	PreconditionUnmet   = &Error{kind: KindPreconditionUnmet}
	ToolFailure         = &Error{kind: KindToolFailure}
	Cancelled           = &Error{kind: KindCancelled}
)
