package app

import (
	"errors"
	"net/http"
)

type unknownToolError struct{ id string }

func (e unknownToolError) Error() string { return "Unknown tool: " + e.id }

// StatusCode maps the error to 404 at the HTTP boundary.
func (e unknownToolError) StatusCode() int { return http.StatusNotFound }

// IsUnknownTool reports whether err names a tool that does not exist.
func IsUnknownTool(err error) bool {
	var e unknownToolError
	return errors.As(err, &e)
}
