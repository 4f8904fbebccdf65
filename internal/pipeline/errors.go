package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure. Kinds are part of the wire
// protocol: the gateway serializes them and the proxy relays them verbatim.
type ErrorKind string

const (
	// KindValidation marks a malformed request, rejected before any
	// external process starts.
	KindValidation ErrorKind = "validation_error"

	// KindDescriptorWrite marks a failure to write the build descriptor
	// into the work directory.
	KindDescriptorWrite ErrorKind = "descriptor_write_error"

	// KindToolNotFound marks a missing external binary (mvn, javap).
	KindToolNotFound ErrorKind = "tool_not_found"

	// KindResolutionFailed marks a non-zero exit from the build tool.
	KindResolutionFailed ErrorKind = "resolution_failed"

	// KindNetworkUnavailable marks a resolution failure whose diagnostic
	// matches known connectivity-failure patterns.
	KindNetworkUnavailable ErrorKind = "network_unavailable"

	// KindTimeout marks an external process that exceeded its wall-clock
	// budget and was terminated.
	KindTimeout ErrorKind = "timeout"

	// KindArchiveUnreadable marks an artifact that could not be opened or
	// an entry that is not present in it. Partial: per artifact.
	KindArchiveUnreadable ErrorKind = "archive_unreadable"

	// KindDecompilationFailed marks a decompiler invocation that exited
	// non-zero or produced no output. Partial: per unit.
	KindDecompilationFailed ErrorKind = "decompilation_failed"

	// KindUpstreamUnreachable marks a proxy-side failure to reach the
	// execution gateway, including proxy-side timeouts.
	KindUpstreamUnreachable ErrorKind = "upstream_unreachable"

	// KindInternal is the fallback for errors outside the taxonomy.
	KindInternal ErrorKind = "internal_error"
)

// Error is the structured failure carried across the protocol boundary.
// Diagnostic holds the failing external tool's raw output when available.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Diagnostic string    `json:"diagnostic,omitempty"`
}

// NewError creates an Error with no diagnostic.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDiagnostic returns a copy of e carrying the tool's raw output.
func (e *Error) WithDiagnostic(diag string) *Error {
	dup := *e
	dup.Diagnostic = diag
	return &dup
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Diagnostic)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsError unwraps err into a *Error. Errors outside the taxonomy are
// wrapped as KindInternal so callers always get a structured shape.
func AsError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Kind: KindInternal, Message: err.Error()}
}

// KindOf returns the taxonomy kind of err, or KindInternal for plain errors.
func KindOf(err error) ErrorKind {
	return AsError(err).Kind
}
