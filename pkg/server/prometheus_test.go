package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kylerisse/pingboard/pkg/host"
)

func TestHandlePrometheus_BasicOutput(t *testing.T) {
	s := newTestServer(t, seedHosts())

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	s.handlePrometheus(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "text/plain" {
		t.Errorf("expected text/plain, got %q", contentType)
	}

	body := w.Body.String()

	// Check HELP and TYPE lines
	for _, want := range []string{
		"# TYPE pingboard_hosts_total gauge",
		"# TYPE pingboard_hosts_online gauge",
		"# HELP host_up",
		"# TYPE host_uptime_percent gauge",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output", want)
		}
	}

	if !strings.Contains(body, "pingboard_hosts_total 3\n") {
		t.Errorf("expected total of 3, got:\n%s", body)
	}
	if !strings.Contains(body, "pingboard_hosts_online 2\n") {
		t.Errorf("expected 2 online, got:\n%s", body)
	}
	if !strings.Contains(body, `host_up{id="10", name="router", ip="192.168.1.1"} 1`) {
		t.Errorf("expected host_up line for router, got:\n%s", body)
	}
	if !strings.Contains(body, `host_uptime_percent{id="10", name="router", ip="192.168.1.1"} 75`) {
		t.Errorf("expected 75%% uptime for router, got:\n%s", body)
	}
}

func TestHandlePrometheus_DownHost(t *testing.T) {
	s := newTestServer(t, []host.Host{
		{ID: 7, Name: "badhost", Address: "10.9.9.9", StatusHistory: host.Samples(false, false)},
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	s.handlePrometheus(w, req)

	body := w.Body.String()

	if !strings.Contains(body, `host_up{id="7", name="badhost", ip="10.9.9.9"} 0`) {
		t.Errorf("expected host_up=0 for down host, got:\n%s", body)
	}
	if !strings.Contains(body, `host_uptime_percent{id="7", name="badhost", ip="10.9.9.9"} 0`) {
		t.Errorf("expected 0%% uptime for down host, got:\n%s", body)
	}
}

func TestHandlePrometheus_NoHosts(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	s.handlePrometheus(w, req)

	body := w.Body.String()

	// Should still have headers but no host-specific lines
	if !strings.Contains(body, "# HELP host_up") {
		t.Error("expected HELP header even with no hosts")
	}
	if !strings.Contains(body, "pingboard_hosts_total 0\n") {
		t.Errorf("expected zero total, got:\n%s", body)
	}
	if strings.Contains(body, "host_up{") {
		t.Error("expected no per-host metrics")
	}
}

func TestHandlePrometheus_EscapesLabels(t *testing.T) {
	s := newTestServer(t, []host.Host{
		{ID: 1, Name: `lab "b" \ rack`, Address: "10.0.0.1", StatusCurrent: true},
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	s.handlePrometheus(w, req)

	if !strings.Contains(w.Body.String(), `name="lab \"b\" \\ rack"`) {
		t.Errorf("expected escaped name label, got:\n%s", w.Body.String())
	}
}

func TestSanitizePrometheusLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{`back\slash`, `back\\slash`},
		{`dq"uote`, `dq\"uote`},
		{"new\nline", `new\nline`},
	}

	for _, tt := range tests {
		if got := sanitizePrometheusLabel(tt.input); got != tt.expected {
			t.Errorf("sanitizePrometheusLabel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
