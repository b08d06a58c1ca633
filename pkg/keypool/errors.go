package keypool

import "fmt"

// QuotaError signals that the upstream rejected a request because the key's
// quota is spent (HTTP 402 on the recipe API). It is produced by the API
// client's response classification and consumed by Execute, which converts
// it into either a rotation to the next key or an AllKeysExhaustedError.
// Callers of Execute never see it.
type QuotaError struct {
	Key     string
	Message string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("API key quota exceeded: %s", e.Message)
}

// AllKeysExhaustedError is the terminal failure when every configured key
// has hit its quota. The message is suitable for direct user display.
type AllKeysExhaustedError struct {
	Total int
}

func (e *AllKeysExhaustedError) Error() string {
	return fmt.Sprintf("all %d API key(s) have hit their daily limit; try again later", e.Total)
}

// UpstreamError is a non-quota error response from the remote service.
// Rotating keys cannot fix a malformed request or a server outage, so it
// is surfaced as-is and never retried.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

// TransportError wraps a connectivity or decoding failure that happened
// before a classifiable response existed. Not retried: switching
// credentials does not fix a broken connection.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
