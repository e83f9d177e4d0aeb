package schema

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// MaxErrorBodyChars bounds how much of an upstream response body an error may carry.
const MaxErrorBodyChars = 500

// ConfigurationError reports a missing or invalid setting, such as an absent
// provider credential. It is raised before any network call.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Reason }

// ValidationError reports a malformed inbound request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Reason }

// ProviderError is a transport failure or non-success HTTP status from the
// upstream provider. Status is 0 when no response was received.
type ProviderError struct {
	Status int
	Body   string
}

// NewProviderError builds a ProviderError whose body is trimmed to MaxErrorBodyChars.
func NewProviderError(status int, body string) *ProviderError {
	return &ProviderError{Status: status, Body: TruncateBody(body)}
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return "provider request failed: " + e.Body
	}
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// Retryable reports whether the failure is transient: no response at all,
// rate limiting, or a server-side error.
func (e *ProviderError) Retryable() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// MalformedResponseError reports a success status whose body could not be
// understood (not JSON, or missing the expected structure).
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return "malformed provider response: " + e.Reason + ": " + e.Err.Error()
	}
	return "malformed provider response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// TimeoutError reports a provider call that did not finish within its deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider call timed out after %s", e.After)
}

// TruncateBody trims whitespace and cuts s to at most MaxErrorBodyChars runes.
func TruncateBody(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= MaxErrorBodyChars {
		return s
	}
	return string(r[:MaxErrorBodyChars]) + "…"
}
