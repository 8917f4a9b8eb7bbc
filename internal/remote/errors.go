package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound     = errors.New("remote: not found")
	ErrUnauthorized = errors.New("remote: unauthorized")
	ErrForbidden    = errors.New("remote: forbidden")
)

// FieldError is one entry of a FastAPI validation error list.
type FieldError struct {
	Field   string
	Message string
	Input   string
}

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// Message extracts the human readable text of err, preferring the API's own
// message over the wrapped chain.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

type validationItem struct {
	Loc   []any  `json:"loc"`
	Msg   string `json:"msg"`
	Input any    `json:"input"`
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = fallbackMessage(status)
		}
		return apiErr
	}

	if len(eb.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(eb.Detail, &detail); err == nil && detail != "" {
			apiErr.Message = detail
			return apiErr
		}
		var items []validationItem
		if err := json.Unmarshal(eb.Detail, &items); err == nil && len(items) > 0 {
			parts := make([]string, 0, len(items))
			for _, it := range items {
				fe := FieldError{
					Field:   joinLoc(it.Loc),
					Message: it.Msg,
					Input:   encodeInput(it.Input),
				}
				apiErr.Fields = append(apiErr.Fields, fe)
				parts = append(parts, fmt.Sprintf("%s: %s (got: %s)", fe.Message, fe.Field, fe.Input))
			}
			apiErr.Message = strings.Join(parts, "; ")
			return apiErr
		}
	}

	switch {
	case eb.Message != "":
		apiErr.Message = eb.Message
	case eb.Error != "":
		apiErr.Message = eb.Error
	default:
		apiErr.Message = fallbackMessage(status)
	}
	return apiErr
}

func fallbackMessage(status int) string {
	return fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
}

func joinLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, l := range loc {
		parts = append(parts, fmt.Sprint(l))
	}
	return strings.Join(parts, ".")
}

func encodeInput(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
