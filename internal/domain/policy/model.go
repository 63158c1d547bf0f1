package policy

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced policy does not exist.
var ErrNotFound = errors.New("policy not found")

// Policy represents a named topic under sentiment analysis
type Policy struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// PostCount is derived on read and never persisted
	PostCount int `json:"post_count"`
}

// Validate checks the fields required at creation time
func (p Policy) Validate() error {
	if p.Name == "" {
		return errors.New("policy name is required")
	}
	if len(p.Keywords) == 0 {
		return errors.New("policy keywords must not be empty")
	}
	return nil
}
