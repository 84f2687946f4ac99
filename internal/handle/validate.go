// Package handle validates public user handles (usernames).
package handle

import (
	"regexp"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/errs"
)

// MinLen is the minimum handle length accepted anywhere in the system.
const MinLen = 3

var allowed = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks a single handle against the allowed format.
func Validate(h string) error {
	switch {
	case h == "":
		return &errs.ValidationError{Handle: h, Reason: "empty"}
	case len(h) < MinLen:
		return &errs.ValidationError{Handle: h, Reason: "shorter than 3 characters"}
	case !allowed.MatchString(h):
		return &errs.ValidationError{Handle: h, Reason: "contains characters outside letters, digits, hyphen, underscore"}
	}
	return nil
}

// ValidatePair checks both sides of a rename: each handle must be valid
// on its own and the two must differ.
func ValidatePair(oldHandle, newHandle string) error {
	if err := Validate(oldHandle); err != nil {
		return err
	}
	if err := Validate(newHandle); err != nil {
		return err
	}
	if oldHandle == newHandle {
		return &errs.ValidationError{Handle: newHandle, Reason: "identical to current handle"}
	}
	return nil
}
