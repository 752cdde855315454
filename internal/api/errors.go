package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel errors matched by *Error via errors.Is.
var (
	ErrNetwork      = errors.New("api: network unreachable")
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrValidation   = errors.New("api: validation failed")
	ErrServer       = errors.New("api: server error")
)

// DefaultErrorMessage is used when the backend sends nothing readable.
const DefaultErrorMessage = "An error occurred"

// Error is the normalised failure of a backend call. Status is 0 when the
// backend could not be reached.
type Error struct {
	Status  int                 `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Is maps the status onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Status == 0
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusUnprocessableEntity
	case ErrServer:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// FirstFieldError returns the first message of the alphabetically first
// field, or "" when there are no field errors.
func (e *Error) FirstFieldError() string {
	if e == nil || len(e.Errors) == 0 {
		return ""
	}
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		for _, msg := range e.Errors[f] {
			if strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	return ""
}

// FieldErrors flattens the per-field errors to one message per field.
func (e *Error) FieldErrors() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for f, msgs := range e.Errors {
		if len(msgs) > 0 {
			out[f] = msgs[0]
		}
	}
	return out
}

func networkError(baseURL string) *Error {
	return &Error{Status: 0, Message: fmt.Sprintf("Unable to connect to the server at %s. Please check your connection.", baseURL)}
}

// decodeError builds an *Error from a non-2xx response body.
func decodeError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}
	var payload struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = firstNonEmpty(payload.Message, payload.Error)
		apiErr.Errors = decodeFieldErrors(payload.Errors)
	}
	if status == http.StatusUnprocessableEntity {
		if first := apiErr.FirstFieldError(); first != "" {
			apiErr.Message = first
		}
	}
	if strings.TrimSpace(apiErr.Message) == "" {
		apiErr.Message = DefaultErrorMessage
	}
	return apiErr
}

// decodeFieldErrors accepts {"f": ["m"]} and {"f": "m"}.
func decodeFieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}
	out := make(map[string][]string, len(generic))
	for field, v := range generic {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			out[field] = list
			continue
		}
		var single string
		if err := json.Unmarshal(v, &single); err == nil {
			out[field] = []string{single}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
