// SPDX-License-Identifier: MPL-2.0

package gitlab

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxErrorBodyBytes caps how much of a failed response body is kept on a RemoteError.
const maxErrorBodyBytes = 64 << 10

var (
	// ErrRemote is the sentinel wrapped by RemoteError.
	ErrRemote = errors.New("remote request failed")
	// ErrTransport is the sentinel wrapped by TransportError.
	ErrTransport = errors.New("remote unreachable")
	// ErrDecode is the sentinel wrapped by DecodeError.
	ErrDecode = errors.New("unexpected response body")
	// ErrUserNotFound is returned when a username lookup yields no user.
	ErrUserNotFound = errors.New("user not found")
)

type (
	// RemoteError is returned when the API answers with a status other than 200 or 201.
	// Body holds the raw response text so callers can surface it verbatim.
	RemoteError struct {
		Method     string
		URL        string
		StatusCode int
		Body       string
	}

	// TransportError is returned when the request never produced a response
	// (DNS, connection refused, timeout, cancelled context).
	TransportError struct {
		URL string
		Err error
	}

	// DecodeError is returned when a successful response body is not the expected JSON.
	DecodeError struct {
		URL string
		Err error
	}
)

// Error formats the status and body the way the API returned them.
func (e *RemoteError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: received status code %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: received status code %d with %s", e.Method, e.URL, e.StatusCode, body)
}

// Unwrap returns ErrRemote for errors.Is compatibility.
func (e *RemoteError) Unwrap() error { return ErrRemote }

// NotFound reports whether the API answered 404.
func (e *RemoteError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.URL, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decoding response: %v", e.URL, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// IsSuccess reports whether status is one of the codes GitLab uses for success.
func IsSuccess(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}
