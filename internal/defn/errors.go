// Package defn holds the small shared types and sentinel errors used
// throughout the daemon: face identifiers, scope/link enums, and the
// wire-independent name type.
package defn

import (
	"errors"
	"fmt"
)

type ErrInvalidValue struct {
	Item  string
	Value any
}

// Error returns a message naming the offending item and its invalid value.
func (e ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid value for %s: %v", e.Item, e.Value)
}

type ErrNotSupported struct {
	Item string
}

// Error reports that the named field or feature is not supported.
func (e ErrNotSupported) Error() string {
	return fmt.Sprintf("not supported: %s", e.Item)
}

var ErrNotCanonical = errors.New("URI is not canonical")
var ErrFaceNotFound = errors.New("face not found")
var ErrFaceSpaceExhausted = errors.New("face-id space exhausted")
var ErrFaceDown = errors.New("face is down")
var ErrDuplicateNonce = errors.New("duplicate nonce")
var ErrParse = errors.New("malformed ccnb frame")
var ErrWrongType = errors.New("element is not of the expected type")
var ErrPrefixNotFound = errors.New("prefix entry not found")
