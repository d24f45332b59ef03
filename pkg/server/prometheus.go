package server

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/kylerisse/pingboard/pkg/store"
)

// handlePrometheus writes Prometheus-formatted metrics for the collection and
// every host in it.
func (s *Server) handlePrometheus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")

	hosts := s.snapshot()
	stats := store.ComputeStats(slices.Values(hosts))

	w.Write([]byte("# HELP pingboard_hosts_total Number of monitored hosts.\n"))
	w.Write([]byte("# TYPE pingboard_hosts_total gauge\n"))
	w.Write(fmt.Appendf([]byte{}, "pingboard_hosts_total %d\n", stats.Total))
	w.Write([]byte("# HELP pingboard_hosts_online Number of hosts whose latest sample is up.\n"))
	w.Write([]byte("# TYPE pingboard_hosts_online gauge\n"))
	w.Write(fmt.Appendf([]byte{}, "pingboard_hosts_online %d\n", stats.Online))

	w.Write([]byte("# HELP host_up Whether the host's latest sample is up (1=up, 0=down).\n"))
	w.Write([]byte("# TYPE host_up gauge\n"))
	w.Write([]byte("# HELP host_uptime_percent Share of up samples in the host's history.\n"))
	w.Write([]byte("# TYPE host_uptime_percent gauge\n"))

	for _, h := range hosts {
		labels := fmt.Sprintf("id=\"%d\", name=\"%s\", ip=\"%s\"",
			h.ID,
			sanitizePrometheusLabel(h.Name),
			sanitizePrometheusLabel(h.Address),
		)
		upVal := 0
		if h.Up() {
			upVal = 1
		}
		w.Write(fmt.Appendf([]byte{}, "host_up{%s} %d\n", labels, upVal))
		w.Write(fmt.Appendf([]byte{}, "host_uptime_percent{%s} %d\n", labels, h.Uptime()))
	}
}

// sanitizePrometheusLabel escapes backslash, double-quote, and newline
// characters in a Prometheus label value for the text exposition format.
func sanitizePrometheusLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
