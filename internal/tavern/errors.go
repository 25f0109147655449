package tavern

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoEndpoint is returned when the client has no URL configured.
	ErrNoEndpoint = errors.New("tavern endpoint is not configured")

	// ErrUnknownResource is returned for resource names that do not exist.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrUnknownOrderField is returned for sort fields a resource does not
	// support.
	ErrUnknownOrderField = errors.New("unknown order field")
)

// maxErrorBody bounds how much of a failed response is kept on HTTPError.
const maxErrorBody = 512

// HTTPError is a non-2xx response from the endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("tavern: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("tavern: HTTP %d: %s", e.StatusCode, e.Body)
}

// Unauthorized reports whether the server rejected the credentials.
func (e *HTTPError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// GraphQLErrorEntry is one entry of a GraphQL "errors" array.
type GraphQLErrorEntry struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLError carries the errors array of a response.
type GraphQLError struct {
	Operation string
	Errors    []GraphQLErrorEntry
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		msgs = append(msgs, entry.Message)
	}
	return fmt.Sprintf("tavern: %s: %s", e.Operation, strings.Join(msgs, "; "))
}
