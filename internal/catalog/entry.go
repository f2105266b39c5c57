package catalog

import (
	"errors"
	"fmt"

	"github.com/segmentio/ksuid"
)

var (
	// ErrEmptyTitle is returned when an entry has no title.
	ErrEmptyTitle = errors.New("title must not be empty")

	// ErrInvalidYear is returned when an entry's year is not a usable number.
	ErrInvalidYear = errors.New("year must be a positive number")
)

// Entry is a single movie catalog record. Entries are keyed by (year, title)
// and each write overwrites the previous entry for that key.
type Entry struct {
	Year   int     `json:"year" dynamodbav:"year"`
	Title  string  `json:"title" dynamodbav:"title"`
	Rating float64 `json:"rating,omitempty" dynamodbav:"rating,omitempty"`
}

// Key is the composite primary key of an entry: year is the partition key,
// title the sort key.
type Key struct {
	Year  int
	Title string
}

// Key returns the entry's primary key.
func (e Entry) Key() Key {
	return Key{Year: e.Year, Title: e.Title}
}

// Validate reports whether the entry can be persisted.
func (e Entry) Validate() error {
	if e.Year <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidYear, e.Year)
	}
	if e.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// NewRequestID returns a unique identifier for one inbound request.
func NewRequestID() string {
	return ksuid.New().String()
}
