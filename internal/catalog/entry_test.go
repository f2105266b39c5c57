package catalog

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr error
	}{
		{
			name:  "valid",
			entry: Entry{Year: 1999, Title: "The Matrix"},
		},
		{
			name:  "valid with rating",
			entry: Entry{Year: 1999, Title: "The Matrix", Rating: 8.7},
		},
		{
			name:    "empty title",
			entry:   Entry{Year: 1999},
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "zero year",
			entry:   Entry{Title: "The Matrix"},
			wantErr: ErrInvalidYear,
		},
		{
			name:    "negative year",
			entry:   Entry{Year: -3, Title: "The Matrix"},
			wantErr: ErrInvalidYear,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.entry.Validate()
			if tc.wantErr == nil {
				assert.NilError(t, err)
				return
			}
			assert.Assert(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
		})
	}
}

func TestEntryKey(t *testing.T) {
	e := Entry{Year: 1999, Title: "The Matrix", Rating: 8.7}
	assert.Equal(t, Key{Year: 1999, Title: "The Matrix"}, e.Key())
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	assert.Assert(t, a != "")
	assert.Assert(t, a != b)
}
