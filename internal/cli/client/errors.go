package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is returned for any non-2xx response
type APIError struct {
	Code    int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed (status %d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("request failed (status %d)", e.Code)
}

// StatusCode returns the HTTP status of the response
func (e *APIError) StatusCode() int {
	return e.Code
}

// Detail returns the server-provided message, or "" when none was sent
func (e *APIError) Detail() string {
	return e.Message
}

func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Code:    resp.StatusCode,
		Message: extractDetail(body),
		Body:    string(body),
	}
}

// extractDetail reads {"detail": "..."} (QueryDesk) or {"error": "..."}.
// Validation failures may send detail as a list of objects with a msg field.
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}

		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}

	return payload.Error
}
