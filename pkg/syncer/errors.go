package syncer

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth is matched by every *AuthError.
	ErrAuth = errors.New("authorization rejected")

	// ErrTransient is matched by every *TransientSyncError.
	ErrTransient = errors.New("transient sync failure")
)

// AuthError reports that the backend rejected the credential. It is never
// retried automatically.
type AuthError struct {
	Op     string // "fetch" or "push"
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %v", e.Op, e.Status, ErrAuth)
}

// Is lets errors.Is(err, ErrAuth) match.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// TransientSyncError wraps a network or server failure. The failed cycle is
// skipped and the next scheduled poll tries again.
type TransientSyncError struct {
	Op  string
	Err error
}

func (e *TransientSyncError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientSyncError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransient) match.
func (e *TransientSyncError) Is(target error) bool {
	return target == ErrTransient
}

func transient(op string, format string, args ...any) error {
	return &TransientSyncError{Op: op, Err: fmt.Errorf(format, args...)}
}
