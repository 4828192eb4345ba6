package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind tags the pipeline stage failure an AppError represents.
type ErrorKind string

const (
	KindUnreadableDocument     ErrorKind = "UNREADABLE_DOCUMENT"
	KindOracleUnavailable      ErrorKind = "ORACLE_UNAVAILABLE"
	KindInvalidPayload         ErrorKind = "INVALID_PAYLOAD"
	KindUnexpectedShape        ErrorKind = "UNEXPECTED_SHAPE"
	KindRemoteReadError        ErrorKind = "REMOTE_READ_ERROR"
	KindRemoteWriteError       ErrorKind = "REMOTE_WRITE_ERROR"
	KindConcurrentModification ErrorKind = "CONCURRENT_MODIFICATION"
	KindConfig                 ErrorKind = "CONFIG_ERROR"
	KindCancelled              ErrorKind = "CANCELLED"
)

// AppError represents application-specific errors
type AppError struct {
	Code    ErrorKind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// GRPCStatus lets status.FromError and friends read a code off any AppError.
func (e *AppError) GRPCStatus() *status.Status {
	return status.New(CodeFor(e.Code), e.Error())
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("version conflict")
	ErrDatabase     = errors.New("database error")
)

// Error constructors
func NewAppError(code ErrorKind, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// KindOf returns the kind of the first AppError in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeFor maps an ErrorKind onto a gRPC status code.
func CodeFor(kind ErrorKind) codes.Code {
	switch kind {
	case KindUnreadableDocument, KindInvalidPayload, KindUnexpectedShape:
		return codes.InvalidArgument
	case KindOracleUnavailable:
		return codes.Unavailable
	case KindRemoteReadError:
		return codes.NotFound
	case KindRemoteWriteError:
		return codes.Internal
	case KindConcurrentModification:
		return codes.Aborted
	case KindConfig:
		return codes.FailedPrecondition
	case KindCancelled:
		return codes.DeadlineExceeded
	default:
		return codes.Unknown
	}
}

// Describe returns the operator-facing name of the stage that failed.
func (k ErrorKind) Describe() string {
	switch k {
	case KindUnreadableDocument:
		return "the PDF could not be read"
	case KindOracleUnavailable:
		return "the language model service could not be reached"
	case KindInvalidPayload:
		return "the model response is not valid JSON"
	case KindUnexpectedShape:
		return "the model response is not a JSON array"
	case KindRemoteReadError:
		return "the catalog file could not be read"
	case KindRemoteWriteError:
		return "the catalog file could not be written"
	case KindConcurrentModification:
		return "the catalog file was changed by someone else"
	case KindConfig:
		return "the configuration is invalid"
	case KindCancelled:
		return "the run was cancelled or timed out"
	default:
		return "unknown failure"
	}
}
