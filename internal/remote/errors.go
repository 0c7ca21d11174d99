package remote

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const maxSnippet = 200

// NetworkError is a transport failure: DNS, connection, timeout, cancellation
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Body holds the response text.
type HTTPError struct {
	Op     string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, snippet(e.Body))
}

// ParseError is an unreadable body or a response missing a required field
type ParseError struct {
	Op      string
	Field   string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid response: missing %q field", e.Op, e.Field)
	}
	return fmt.Sprintf("%s: invalid response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Describe renders err as a sentence suitable for a toast
func Describe(err error) string {
	var netErr *NetworkError
	var httpErr *HTTPError
	var parseErr *ParseError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &netErr):
		return fmt.Sprintf("Network error, check the endpoint URL and your connection (%v)", netErr.Err)
	case errors.As(err, &httpErr):
		return fmt.Sprintf("Server returned HTTP %d: %s", httpErr.Status, snippet(httpErr.Body))
	case errors.As(err, &parseErr):
		if parseErr.Field != "" {
			return fmt.Sprintf("Unexpected server response (missing %q)", parseErr.Field)
		}
		return "Unexpected server response"
	default:
		return err.Error()
	}
}

// snippet cuts s to maxSnippet bytes without splitting a rune
func snippet(s string) string {
	if len(s) <= maxSnippet {
		return s
	}
	cut := maxSnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
