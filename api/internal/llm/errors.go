package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a failed generation.
type Kind string

const (
	KindRateLimited    Kind = "rate_limited"
	KindContentBlocked Kind = "content_blocked"
	KindEmptyResponse  Kind = "empty_response"
	KindProvider       Kind = "provider"
)

// Error is a classified engine failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrNoCandidates = errors.New("response has no candidates")
	ErrNoParts      = errors.New("response candidate has no content parts")
)

// Blocked wraps err as a content-blocked failure.
func Blocked(err error) error {
	if err == nil {
		err = ErrNoCandidates
	}
	return &Error{Kind: KindContentBlocked, Err: err}
}

// Empty wraps err as an empty-response failure.
func Empty(err error) error {
	if err == nil {
		err = ErrNoParts
	}
	return &Error{Kind: KindEmptyResponse, Err: err}
}

// HTTPStatusError is returned by engines that talk to the provider over
// plain HTTP.
type HTTPStatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Provider, e.Code, e.Body)
}

// Classify maps any engine error to a Kind.
func Classify(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	if IsRateLimited(err) {
		return KindRateLimited
	}
	return KindProvider
}

// IsRateLimited reports whether err is the provider's quota signal.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind == KindRateLimited
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// A typed error carries the provider's verdict. The text scan below is
	// only for errors that lost their type on the way up.
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return st.Code() == codes.ResourceExhausted
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	var aerr genai.APIError
	if errors.As(err, &aerr) {
		return aerr.Code == http.StatusTooManyRequests || aerr.Status == "RESOURCE_EXHAUSTED"
	}
	var herr *HTTPStatusError
	if errors.As(err, &herr) {
		return herr.Code == http.StatusTooManyRequests
	}

	s := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "resource_exhausted", "resource exhausted", "quota", "too many requests"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
