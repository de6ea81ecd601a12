package service

import (
	"github.com/google/uuid"
)

// newResourceID returns a random id that is never reused across ingests.
func newResourceID() string {
	return uuid.NewString()
}
