package spotify

import (
	"fmt"
)

// Error represents a non-success response from the Spotify API.
//
// The Error type carries the HTTP status and, when the response body
// could be decoded, the upstream error message. It implements error
// and provides a method for retry logic.
type Error struct {
	Status  int    // HTTP status code
	Message string // Error message from Spotify, if any
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify: status %d", e.Status)
	}
	return fmt.Sprintf("spotify: status %d: %s", e.Status, e.Message)
}

// Is checks if the target error is a Spotify error with the same status.
//
// This allows errors.Is() to work with *Error types.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status
}

// Temporary returns true if the request may succeed on a later attempt.
func (e *Error) Temporary() bool {
	return e.Status == 429 || e.Status >= 500
}

// errorBody is the JSON error envelope returned by the accounts service.
type errorBody struct {
	Err     string `json:"error"`
	ErrDesc string `json:"error_description"`
}

// apiErrorBody is the JSON error envelope returned by the Web API.
type apiErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
