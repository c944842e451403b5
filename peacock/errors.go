package peacock

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrorKind classifies an upstream API failure.
type ErrorKind string

const (
	KindNetwork   ErrorKind = "network"
	KindTimeout   ErrorKind = "timeout"
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindQuota     ErrorKind = "quota"
	KindGeneric   ErrorKind = "generic"
)

// APIError is a structured upstream failure carrying the endpoint and a
// stable user-facing message. The original error detail is preserved for
// server-side logs via Unwrap.
type APIError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%s %d): %s", e.Kind, e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// The upstream service does not type its errors uniformly, so classification
// inspects message text against an explicit pattern table. Order matters:
// the first matching pattern wins.
var classificationTable = []struct {
	pattern string
	kind    ErrorKind
}{
	{"rate limit", KindRateLimit},
	{"too many requests", KindRateLimit},
	{"429", KindRateLimit},
	{"quota", KindQuota},
	{"login failed", KindAuth},
	{"session cookie", KindAuth},
	{"authentication", KindAuth},
	{"unauthorized", KindAuth},
	{"401", KindAuth},
	{"timeout", KindTimeout},
	{"deadline exceeded", KindTimeout},
	{"network", KindNetwork},
	{"connection refused", KindNetwork},
	{"no such host", KindNetwork},
	{"fetch", KindNetwork},
}

var statusCodePattern = regexp.MustCompile(`\b(\d{3})\b`)

// Classify wraps an upstream failure into an APIError with a stable
// user-facing message.
func Classify(err error, endpoint string) *APIError {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}

	lower := strings.ToLower(err.Error())
	kind := KindGeneric
	for _, entry := range classificationTable {
		if strings.Contains(lower, entry.pattern) {
			kind = entry.kind
			break
		}
	}

	statusCode := 0
	if match := statusCodePattern.FindString(err.Error()); match != "" {
		statusCode, _ = strconv.Atoi(match)
	}

	return &APIError{
		Kind:       kind,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    userMessage(kind, err),
		cause:      err,
	}
}

// userMessage maps an ErrorKind to the message surfaced to the chat user.
func userMessage(kind ErrorKind, err error) string {
	switch kind {
	case KindNetwork:
		return "Unable to connect to the Peacock API. Please check your connection and try again."
	case KindTimeout:
		return "Request to the Peacock API timed out. Please try again."
	case KindAuth:
		return "Authentication failed. Unable to connect to the Peacock API."
	case KindRateLimit:
		return "The Peacock API is rate limiting requests. Please try again shortly."
	case KindQuota:
		return "The Peacock API quota has been exhausted. Please try again later."
	default:
		return err.Error()
	}
}
