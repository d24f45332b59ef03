// Package host defines the monitored host record shared by the store, the
// sync engine, and the reference backend, together with the address
// validation and uptime rules that apply to it.
package host

import (
	"math"
	"strings"
)

// Host represents one monitored endpoint and its liveness state.
type Host struct {
	ID            int64      `json:"id"`            // Unique, immutable sort key
	Name          string     `json:"name"`          // Display label
	Address       string     `json:"ip"`            // Dotted-quad IPv4 address
	StatusCurrent Liveness   `json:"statusCurrent"` // Most recent known liveness
	StatusHistory []Liveness `json:"statusHistory"` // Oldest sample first
}

// Validate checks the operator-editable fields. It returns a
// *ValidationError for a blank name or a malformed address.
func (h Host) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return &ValidationError{Field: "name", Value: h.Name, Reason: "must not be blank"}
	}
	if !IsValidIPv4(h.Address) {
		return &ValidationError{Field: "ip", Value: h.Address, Reason: "must be a dotted-quad IPv4 address"}
	}
	return nil
}

// Up reports whether the most recent sample was alive.
func (h Host) Up() bool {
	return bool(h.StatusCurrent)
}

// Uptime returns the percentage of alive samples in the history, rounded
// to the nearest integer. An empty history yields 0.
func (h Host) Uptime() int {
	if len(h.StatusHistory) == 0 {
		return 0
	}
	up := 0
	for _, s := range h.StatusHistory {
		if s {
			up++
		}
	}
	return int(math.Round(100 * float64(up) / float64(len(h.StatusHistory))))
}

// Clone returns a copy of h that shares no memory with it.
func (h Host) Clone() Host {
	c := h
	if h.StatusHistory != nil {
		c.StatusHistory = make([]Liveness, len(h.StatusHistory))
		copy(c.StatusHistory, h.StatusHistory)
	}
	return c
}

// CloneAll deep-copies a collection of hosts.
func CloneAll(hosts []Host) []Host {
	out := make([]Host, len(hosts))
	for i, h := range hosts {
		out[i] = h.Clone()
	}
	return out
}
