package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// ThrottledError marks a provider-reported rate-limit status. The status
// code comes from the response body, not the transport layer.
type ThrottledError struct {
	Err        error
	StatusCode int
}

func (e *ThrottledError) Error() string {
	return e.Err.Error()
}

func (e *ThrottledError) Unwrap() error {
	return e.Err
}

// NewThrottledError wraps an error as provider throttling.
func NewThrottledError(err error, statusCode int) *ThrottledError {
	return &ThrottledError{Err: err, StatusCode: statusCode}
}

// InvalidItemError marks a batch call rejected because one input item is
// permanently unacceptable to the provider. Item carries the provider's
// identification of the offender (often a fragment of the keyword).
type InvalidItemError struct {
	Err  error
	Item string
}

func (e *InvalidItemError) Error() string {
	return e.Err.Error()
}

func (e *InvalidItemError) Unwrap() error {
	return e.Err
}

// NewInvalidItemError wraps a per-item provider rejection.
func NewInvalidItemError(err error, item string) *InvalidItemError {
	return &InvalidItemError{Err: err, Item: item}
}

// AsInvalidItem extracts an InvalidItemError from the chain.
func AsInvalidItem(err error) (*InvalidItemError, bool) {
	var ie *InvalidItemError
	ok := errors.As(err, &ie)
	return ie, ok
}

// IsThrottled reports whether the error chain contains provider throttling
// or a network-level transient failure worth retrying.
func IsThrottled(err error) bool {
	if err == nil {
		return false
	}

	var te *ThrottledError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
