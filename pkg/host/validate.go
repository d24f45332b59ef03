package host

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a rejected local edit.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// octet matches 0-255, allowing the same leading-zero forms the dashboard
// editor has always accepted.
const octet = `(25[0-5]|2[0-4]\d|1?\d\d?|0)`

var ipv4Regex = regexp.MustCompile(`^` + octet + `(\.` + octet + `){3}$`)

// IsValidIPv4 reports whether address is a well-formed dotted quad with
// every octet in 0-255.
func IsValidIPv4(address string) bool {
	return ipv4Regex.MatchString(address)
}
