package inventory

import "errors"

// ErrRecordNotFound is returned when no module matches the lookup.
var ErrRecordNotFound = errors.New("inventory: module not found")
