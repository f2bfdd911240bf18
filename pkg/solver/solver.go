// Package solver implements the planning algorithms behind the API: shortest
// relief routes (Bellman-Ford), supply allocation (fractional knapsack) and
// zone scheduling (greedy graph coloring).
package solver

import (
	"fmt"
)

// Error is a rejection caused by the request itself. The API reports its
// Message verbatim with a 400 status.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalidf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Common rejections.
var (
	ErrUnknownEndpoint = &Error{Message: "Source or destination name not found."}
	ErrNegativeCycle   = &Error{Message: "Negative cycle detected. Route not reliable."}
	ErrNoPath          = &Error{Message: "No path found from source to destination."}
)
