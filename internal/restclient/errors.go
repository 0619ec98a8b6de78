package restclient

import (
	"errors"
	"fmt"
	"net/http"
)

// GenericErrorMessage is shown when the server supplies no detail.
const GenericErrorMessage = "An unknown error occurred"

// ErrUnauthorized marks an authentication-failure response. The binding
// has already cleared the credential and redirected by the time a caller
// sees it.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx backend response with whatever detail the server
// supplied.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error returns the formatted failure.
func (apiError *APIError) Error() string {
	if apiError.Detail == "" {
		return fmt.Sprintf("api error: status %d", apiError.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", apiError.StatusCode, apiError.Detail)
}

// Is matches ErrUnauthorized for 401 responses.
func (apiError *APIError) Is(target error) bool {
	return target == ErrUnauthorized && apiError.StatusCode == http.StatusUnauthorized
}

// UserMessage resolves the text shown in a transient notification: the
// server-supplied detail when present, the generic fallback otherwise.
func UserMessage(err error) string {
	var apiError *APIError
	if errors.As(err, &apiError) && apiError.Detail != "" {
		return apiError.Detail
	}
	return GenericErrorMessage
}
