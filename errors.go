package triviaquiz

import (
	"errors"
	"fmt"
)

// Generation and provider failures. None of these escape the Generator or
// Explainer; they are turned into placeholder content.
var (
	ErrRateLimitExceeded          = errors.New("rate limit exceeded")
	ErrProviderQuota              = errors.New("provider quota exceeded")
	ErrProviderConnectivity       = errors.New("provider connectivity failure")
	ErrProviderGeneric            = errors.New("provider error")
	ErrMalformedResponse          = errors.New("malformed model response")
	ErrDuplicateQuestionExhausted = errors.New("duplicate question retries exhausted")
)

// Session transition errors
var (
	ErrUnknownCategory     = errors.New("unknown category")
	ErrNoActiveQuestion    = errors.New("no active question")
	ErrQuestionUnavailable = errors.New("question could not be generated")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrInvalidAnswer       = errors.New("answer is not one of the options")
	ErrNotAnswered         = errors.New("question not answered yet")
)

// UserMessage returns the short text displayed in place of a question or
// explanation when err occurred.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimitExceeded):
		return "API rate limit reached. Please wait a minute and try again."
	case errors.Is(err, ErrProviderQuota):
		return "API quota exceeded. Please check your plan and billing details."
	case errors.Is(err, ErrProviderConnectivity):
		return "Unable to connect to the question service. Please check your connection and try again."
	case errors.Is(err, ErrMalformedResponse):
		return "The generated question could not be read. Please try again."
	case errors.Is(err, ErrDuplicateQuestionExhausted):
		return "Could not find a new question; this one may have been asked before."
	default:
		return fmt.Sprintf("Error generating content: %v", err)
	}
}

// errorKind is the short label used in logs and metrics
func errorKind(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, ErrProviderQuota):
		return "quota"
	case errors.Is(err, ErrProviderConnectivity):
		return "connectivity"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrDuplicateQuestionExhausted):
		return "duplicate_exhausted"
	default:
		return "generic"
	}
}
