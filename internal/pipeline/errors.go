package pipeline

import (
	"errors"
	"fmt"

	"github.com/driveturbo/transcriber/internal/speech"
)

// Kind is the failure taxonomy surfaced to handlers. Upstream kinds pass
// through from the speech client unchanged.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindTranscode  Kind = "TranscodeError"
	KindStorage    Kind = "StorageError"
	KindUnknown    Kind = "UnknownError"
)

// Error is the classified pipeline failure.
type Error struct {
	Kind    Kind
	Message string // user-facing summary
	Raw     string // underlying error text
	Details string // human-readable hint
	Status  int    // HTTP status to respond with
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts the pipeline error from err, wrapping unclassified errors
// as KindUnknown.
func AsError(err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	var apiErr *speech.APIError
	if errors.As(err, &apiErr) {
		return upstreamError(apiErr)
	}
	return &Error{
		Kind:    KindUnknown,
		Message: "failed to process the file",
		Raw:     err.Error(),
		Status:  500,
		Err:     err,
	}
}

func validationError(message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Status:  400,
	}
}

func storageError(message string, err error) *Error {
	return &Error{
		Kind:    KindStorage,
		Message: message,
		Raw:     err.Error(),
		Details: "check the temp directory and the staging bucket configuration",
		Status:  500,
		Err:     err,
	}
}

func upstreamError(err error) *Error {
	apiErr := speech.Classify(err)
	return &Error{
		Kind:    Kind(apiErr.Kind),
		Message: "transcription failed",
		Raw:     apiErr.Message,
		Details: apiErr.Hint,
		Status:  500,
		Err:     apiErr,
	}
}
