package gateway

import "net/http"

// Stable machine-readable error codes surfaced to callers.
const (
	CodeRateLimited = "RATE_LIMIT_EXCEEDED"
	CodeServerBusy  = "SERVER_BUSY"
	CodeUpstream    = "UPSTREAM_ERROR"
)

// Error is a request-level failure with a stable code the caller can act
// on. The HTTP layer maps Status directly onto the response.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func errRateLimited() *Error {
	return &Error{
		Code:    CodeRateLimited,
		Message: "rate limit exceeded, please slow down",
		Status:  http.StatusTooManyRequests,
	}
}

func errServerBusy() *Error {
	return &Error{
		Code:    CodeServerBusy,
		Message: "server is at capacity, please retry later",
		Status:  http.StatusServiceUnavailable,
	}
}

func errUpstream(msg string) *Error {
	return &Error{
		Code:    CodeUpstream,
		Message: msg,
		Status:  http.StatusBadGateway,
	}
}
