package models

import "github.com/oklog/ulid/v2"

// NewID returns a new lexically sortable record id.
func NewID() string {
	return ulid.Make().String()
}
