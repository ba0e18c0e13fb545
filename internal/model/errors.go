package model

import "errors"

// NotSupportedError is raised during model building for syntactically
// valid SQL that this translator intentionally does not implement. It
// always names the offending construct so that callers (and their
// logs) can tell an unsupported query from a broken one.
//
// NotSupportedError is produced before any network traffic: an
// unsupported statement never reaches the remote database.
type NotSupportedError struct {
	// Construct is the SQL construct that triggered the rejection
	// (e.g. "OR", "BETWEEN", "SUM").
	Construct string

	// Message is the full human-readable description. When empty, a
	// "<construct> not yet supported" message is synthesized.
	Message string
}

// Error implements the error interface.
func (e *NotSupportedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Construct + " not yet supported"
}

// NotSupported creates a NotSupportedError with the synthesized
// "<construct> not yet supported" message.
func NotSupported(construct string) *NotSupportedError {
	return &NotSupportedError{Construct: construct}
}

// NotSupportedMsg creates a NotSupportedError with an explicit message.
func NotSupportedMsg(construct, message string) *NotSupportedError {
	return &NotSupportedError{Construct: construct, Message: message}
}

// IsNotSupported reports whether err is (or wraps) a NotSupportedError.
func IsNotSupported(err error) bool {
	var nse *NotSupportedError
	return errors.As(err, &nse)
}
