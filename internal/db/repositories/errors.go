package repositories

import "errors"

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("record not found")
