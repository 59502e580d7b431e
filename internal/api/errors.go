// ABOUTME: Error taxonomy for UniMeet API responses
// ABOUTME: Maps HTTP failures to typed errors the caller can branch on

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized indicates the bearer credential was missing or rejected.
var ErrUnauthorized = errors.New("not authorized")

// ValidationError carries a 4xx message the server intends for display,
// e.g. a duplicate friend request. These are the only errors whose text is
// shown to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ServerError is a non-2xx response with no displayable detail.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// errorBody is the DRF-style error envelope: {"detail": "..."}
type errorBody struct {
	Detail string `json:"detail"`
}

// handleRequestError converts transport and context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("request canceled")
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses into the taxonomy
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Detail == "" {
		return &ServerError{Status: resp.StatusCode}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ValidationError{Message: body.Detail}
	}
	return &ServerError{Status: resp.StatusCode}
}
