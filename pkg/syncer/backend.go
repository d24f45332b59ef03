package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kylerisse/pingboard/pkg/host"
)

const (
	// SnapshotPath is the full-snapshot read endpoint.
	SnapshotPath = "/data.json"

	// SavePath is the full-overwrite write endpoint.
	SavePath = "/save"

	// DefaultRequestTimeout bounds a single fetch or push.
	DefaultRequestTimeout = 10 * time.Second

	// maxSnapshotBytes caps how much of a snapshot body is read.
	maxSnapshotBytes = 8 << 20
)

// Backend reads and overwrites the authoritative host collection.
type Backend interface {
	Fetch(ctx context.Context, token string) ([]host.Host, error)
	Push(ctx context.Context, token string, hosts []host.Host) error
}

// Envelope is the wire shape of both endpoints.
type Envelope struct {
	Hosts []host.Host `json:"hosts"`
}

// HTTPBackend talks to the reference backend over HTTP.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// HTTPOption is a functional option for configuring an HTTPBackend.
type HTTPOption func(*HTTPBackend) error

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(b *HTTPBackend) error {
		if c == nil {
			return fmt.Errorf("http client must not be nil")
		}
		b.client = c
		return nil
	}
}

// WithRequestTimeout sets the per-request timeout of the default client.
func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(b *HTTPBackend) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		b.client.Timeout = d
		return nil
	}
}

// NewHTTPBackend creates a backend client rooted at baseURL.
func NewHTTPBackend(baseURL string, opts ...HTTPOption) (*HTTPBackend, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend: url %q must be http or https", baseURL)
	}

	b := &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultRequestTimeout},
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
	}
	return b, nil
}

// Fetch reads the full host snapshot.
func (b *HTTPBackend) Fetch(ctx context.Context, token string) ([]host.Host, error) {
	req, err := b.newRequest(ctx, http.MethodGet, SnapshotPath, token, nil)
	if err != nil {
		return nil, transient("fetch", "building request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &TransientSyncError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus("fetch", resp); err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSnapshotBytes)).Decode(&env); err != nil {
		return nil, transient("fetch", "decoding snapshot: %w", err)
	}
	if env.Hosts == nil {
		env.Hosts = []host.Host{}
	}
	return env.Hosts, nil
}

// Push overwrites the backend's collection with hosts.
func (b *HTTPBackend) Push(ctx context.Context, token string, hosts []host.Host) error {
	if hosts == nil {
		hosts = []host.Host{}
	}
	body, err := json.Marshal(Envelope{Hosts: hosts})
	if err != nil {
		return transient("push", "encoding hosts: %w", err)
	}

	req, err := b.newRequest(ctx, http.MethodPost, SavePath, token, bytes.NewReader(body))
	if err != nil {
		return transient("push", "building request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return &TransientSyncError{Op: "push", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return checkStatus("push", resp)
}

func (b *HTTPBackend) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// checkStatus maps a response status onto the sync error taxonomy.
func checkStatus(op string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &AuthError{Op: op, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return transient(op, "backend returned %s", resp.Status)
	}
	return nil
}
