package syncer

import "sync"

// Credentials supplies the bearer token for backend requests. Rejected is
// called once per AuthError so the owner can re-prompt for a new token.
type Credentials interface {
	Token() string
	Rejected(err error)
}

// StaticToken is a fixed credential, typically read from configuration.
type StaticToken struct {
	mu       sync.RWMutex
	token    string
	onReject func(error)
}

// NewStaticToken wraps token. onReject may be nil.
func NewStaticToken(token string, onReject func(error)) *StaticToken {
	return &StaticToken{token: token, onReject: onReject}
}

// Token returns the current token.
func (t *StaticToken) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// Set replaces the token, e.g. after the operator re-enters it.
func (t *StaticToken) Set(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

// Rejected forwards err to the onReject callback, if any.
func (t *StaticToken) Rejected(err error) {
	if t.onReject != nil {
		t.onReject(err)
	}
}
