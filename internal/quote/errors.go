package quote

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by the fetcher and the parser. Fetch failures walk
// the proxy fallback chain; parse failures propagate immediately.
var (
	// ErrInvalidSymbol rejects input that is not SYMBOL:EXCHANGE.
	ErrInvalidSymbol = errors.New("invalid symbol format, want SYMBOL:EXCHANGE")
	// ErrAllProxiesExhausted is returned once every proxy attempt has failed.
	ErrAllProxiesExhausted = errors.New("all proxies exhausted")
	// ErrBlocked flags bodies that look like a CORS block, CAPTCHA challenge
	// or rate-limit page rather than a real quote page.
	ErrBlocked = errors.New("blocked or challenge response")
	// ErrIncompleteBody flags bodies too short to be a real quote page.
	ErrIncompleteBody = errors.New("incomplete response body")
)

// StatusError is a non-success HTTP response from an upstream or proxy.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status code: %d", e.Code) }

// ExtractionError means a mandatory field could not be pulled out of the page.
type ExtractionError struct {
	Field string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract %s from quote page", e.Field)
}

// ValidationError means the assembled quote violated a structural invariant.
// Field names the offending field for diagnostics.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid quote: field %s", e.Field)
	}
	return fmt.Sprintf("invalid quote: field %s: %s", e.Field, e.Reason)
}
