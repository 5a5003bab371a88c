package core

// error_messages.go defines the error taxonomy of the report engine.
//
// Every failure that leaves the engine is an *Error carrying one Kind.
// Each Kind has a stable numeric code that callers and support staff can
// quote, and a fixed message:
//
//	 -1  GlobalError          unclassified failure
//	401  InvalidInput         missing or empty required parameter, bad format
//	402  DataAccessFailure    data source unreachable or query error
//	403  LogAccessFailure     log sink cannot be opened
//	404  NoDataFound          fetch succeeded but the master record is absent
//	405  DeviceUnavailable    printer unknown, offline or in error
//	406  ConversionFailure    fixed-layout conversion or print submission failed
//	407  ReportNotConfigured  unknown report id
//	408  RenderError          layout or template failure
//
// Codes 401 to 406 match the codes the legacy reporting service returned,
// so existing clients keep working.

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error.
type Kind int

const (
	GlobalError Kind = iota
	InvalidInput
	DataAccessFailure
	LogAccessFailure
	NoDataFound
	DeviceUnavailable
	ConversionFailure
	ReportNotConfigured
	RenderError
)

type kindInfo struct {
	name    string
	code    int
	message string
}

// kinds is indexed by Kind and never modified.
var kinds = [...]kindInfo{
	GlobalError:         {"GlobalError", -1, "Global error"},
	InvalidInput:        {"InvalidInput", 401, "Invalid Input"},
	DataAccessFailure:   {"DataAccessFailure", 402, "DB access failure"},
	LogAccessFailure:    {"LogAccessFailure", 403, "Log access failure"},
	NoDataFound:         {"NoDataFound", 404, "No Data found"},
	DeviceUnavailable:   {"DeviceUnavailable", 405, "Unknown Printer"},
	ConversionFailure:   {"ConversionFailure", 406, "Failed to print"},
	ReportNotConfigured: {"ReportNotConfigured", 407, "Report not configured"},
	RenderError:         {"RenderError", 408, "Failed to render report"},
}

func (k Kind) info() kindInfo {
	if k < 0 || int(k) >= len(kinds) {
		return kinds[GlobalError]
	}
	return kinds[k]
}

// Code returns the stable numeric code of k.
func (k Kind) Code() int { return k.info().code }

// Message returns the fixed message of k.
func (k Kind) Message() string { return k.info().message }

func (k Kind) String() string { return k.info().name }

// Error is the single error type returned by the engine.
type Error struct {
	Kind   Kind
	Detail string // technical detail for logs; may be empty
	Err    error  // underlying cause
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Message()
	}
	return e.Kind.Message() + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the numeric code of the error's kind.
func (e *Error) Code() int { return e.Kind.Code() }

// NewError creates an error of the given kind with a detail message.
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Errorf creates an error of the given kind. A %w verb in format keeps the
// wrapped error reachable through errors.Is and errors.As.
func Errorf(kind Kind, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	cause := errors.Unwrap(err)
	if cause == nil {
		if _, multi := err.(interface{ Unwrap() []error }); multi {
			cause = err
		}
	}
	return &Error{Kind: kind, Detail: err.Error(), Err: cause}
}

// Wrap classifies err as kind. Errors that already belong to the taxonomy
// are returned unchanged so the kind assigned at detection survives.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Detail: err.Error(), Err: err}
}

// Normalize returns err as an *Error, wrapping anything outside the
// taxonomy into GlobalError. Returns nil if err is nil.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: GlobalError, Detail: err.Error(), Err: err}
}

// KindOf returns the kind of err, GlobalError for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return GlobalError
}

// IsKind reports whether err belongs to kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
