// Package resolve looks up display names for host addresses using reverse
// DNS. The backend uses it to fill in a name when an operator saves a host
// without one.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultTimeout is the default PTR query timeout.
const DefaultTimeout = 2 * time.Second

// Resolver queries PTR records against a specific server.
type Resolver struct {
	server  string // host:port of the DNS server
	timeout time.Duration
	client  *dns.Client
}

// Option is a functional option for configuring a Resolver.
type Option func(*Resolver) error

// WithTimeout sets the PTR query timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		r.timeout = d
		return nil
	}
}

// New creates a Resolver that sends queries to server.
func New(server string, opts ...Option) (*Resolver, error) {
	if server == "" {
		return nil, fmt.Errorf("resolve: server must not be empty")
	}

	r := &Resolver{
		server:  server,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
	}

	r.client = &dns.Client{
		Timeout: r.timeout,
	}
	return r, nil
}

// Server returns the host:port queries are sent to.
func (r *Resolver) Server() string {
	return r.server
}

// LookupName returns the first PTR target for address, without the
// trailing dot.
func (r *Resolver) LookupName(ctx context.Context, address string) (string, error) {
	arpa, err := dns.ReverseAddr(address)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", address, err)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", address, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("resolve %s: rcode %s", address, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			if name := normalizeFQDN(ptr.Ptr); name != "" {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("resolve %s: no PTR record in answer", address)
}

// normalizeFQDN strips the trailing dot so that "router.lan." reads as
// "router.lan".
func normalizeFQDN(s string) string {
	return strings.TrimSuffix(s, ".")
}
