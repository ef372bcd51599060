package doordash

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CodeAuthenticationError es el code que DoorDash devuelve cuando el JWT
// venció o es inválido. Es la única clasificación que dispara retry.
const CodeAuthenticationError = "authentication_error"

// APIError es una respuesta no-2xx de DoorDash.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("doordash: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("doordash: status %d", e.StatusCode)
}

// IsAuthenticationError reporta si err (o algo que envuelve) es un
// authentication_error de DoorDash.
func IsAuthenticationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeAuthenticationError
}

// parseAPIError arma el APIError a partir del body de error. Bodies que no son
// JSON quedan con Code vacío (se tratan como downstream, sin retry).
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	if len(body) > 0 && json.Valid(body) {
		e.Body = json.RawMessage(body)
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			e.Code = payload.Code
			e.Message = payload.Message
		}
	}
	return e
}
