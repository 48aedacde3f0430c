package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNoCredential means an authenticated call was attempted with no
	// stored credential. No network request is made in that case.
	ErrNoCredential = errors.New("not authenticated, run 'taskdeck login' first")

	// ErrUnauthenticated means the server rejected the credential.
	ErrUnauthenticated = errors.New("credential rejected by server")
)

// APIError is a structured failure reported by the server. The message is
// surfaced to the user verbatim and the call is never retried.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Is lets callers match rejected credentials with errors.Is.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.StatusCode == http.StatusUnauthorized
}

// decodeError turns a non-success response into an APIError, preferring
// the server-supplied message when the body is JSON.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			message = payload.Message
		} else if payload.Error != "" {
			message = payload.Error
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
