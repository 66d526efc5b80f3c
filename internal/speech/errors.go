package speech

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorKind identifies the upstream error category. Callers use it to decide
// user-facing messaging, so the client never collapses these into one kind.
type ErrorKind string

const (
	KindAuth            ErrorKind = "UpstreamAuthError"
	KindPermission      ErrorKind = "UpstreamPermissionError"
	KindQuota           ErrorKind = "UpstreamQuotaError"
	KindInvalidArgument ErrorKind = "UpstreamInvalidArgumentError"
	KindUnknown         ErrorKind = "UnknownUpstreamError"
)

// APIError is the normalized upstream error shape.
type APIError struct {
	Kind    ErrorKind
	Message string
	Hint    string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

var hints = map[ErrorKind]string{
	KindAuth:            "credentials are invalid or expired; re-check the service account key or refresh token",
	KindPermission:      "the configured account lacks access to the Speech-to-Text API or the staging bucket",
	KindQuota:           "the project exceeded its Speech-to-Text quota; retry later or raise the quota",
	KindInvalidArgument: "the recognition config does not match the audio (encoding or sample rate)",
	KindUnknown:         "unexpected upstream failure; see the raw message",
}

// Classify normalizes an upstream error. The typed googleapi surface is
// preferred; canonical status substrings are the fallback for errors that
// reach us as plain text (token exchange, operation failures).
func Classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	kind := KindUnknown
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401:
			kind = KindAuth
		case 403:
			// 403 covers both permission and quota failures.
			if containsAny(gerr.Message, "RESOURCE_EXHAUSTED", "quota") {
				kind = KindQuota
			} else {
				kind = KindPermission
			}
		case 429:
			kind = KindQuota
		case 400:
			kind = KindInvalidArgument
		}
	}

	if kind == KindUnknown {
		kind = classifyMessage(err.Error())
	}

	return &APIError{
		Kind:    kind,
		Message: err.Error(),
		Hint:    hints[kind],
		Err:     err,
	}
}

// classifyMessage matches the canonical gRPC status names the API embeds in
// human-readable messages.
func classifyMessage(msg string) ErrorKind {
	switch {
	case containsAny(msg, "UNAUTHENTICATED", "invalid_grant", "invalid credentials"):
		return KindAuth
	case containsAny(msg, "PERMISSION_DENIED"):
		return KindPermission
	case containsAny(msg, "RESOURCE_EXHAUSTED", "quota"):
		return KindQuota
	case containsAny(msg, "INVALID_ARGUMENT"):
		return KindInvalidArgument
	default:
		return KindUnknown
	}
}

// statusError converts a failed long-running operation status. The numeric
// codes follow the canonical gRPC code space.
func statusError(code int64, message string) *APIError {
	kind := KindUnknown
	switch code {
	case 3:
		kind = KindInvalidArgument
	case 7:
		kind = KindPermission
	case 8:
		kind = KindQuota
	case 16:
		kind = KindAuth
	default:
		kind = classifyMessage(message)
	}
	return &APIError{
		Kind:    kind,
		Message: message,
		Hint:    hints[kind],
		Err:     fmt.Errorf("operation failed with status %d: %s", code, message),
	}
}

func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
