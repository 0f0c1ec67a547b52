package id

import (
	"github.com/oklog/ulid/v2"
)

// New generates a ULID string. ulid.Make draws from a process-wide monotonic
// source, so ids created in the same millisecond still sort in creation order.
func New() string {
	return ulid.Make().String()
}
