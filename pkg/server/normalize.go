package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/kylerisse/pingboard/pkg/host"
)

// normalize validates a saved collection and brings it into canonical form.
// Names and addresses are trimmed, a blank name is filled from reverse DNS
// (or the address itself), nil histories become empty, and histories are
// cut to the newest historyWindow samples. A non-positive or repeated id,
// or a malformed address, rejects the whole save.
func (s *Server) normalize(ctx context.Context, hosts []host.Host) ([]host.Host, error) {
	out := make([]host.Host, 0, len(hosts))
	seen := make(map[int64]struct{}, len(hosts))

	for _, h := range hosts {
		h = h.Clone()
		h.Name = strings.TrimSpace(h.Name)
		h.Address = strings.TrimSpace(h.Address)

		id := strconv.FormatInt(h.ID, 10)
		if h.ID <= 0 {
			return nil, &host.ValidationError{Field: "id", Value: id, Reason: "must be positive"}
		}
		if _, dup := seen[h.ID]; dup {
			return nil, &host.ValidationError{Field: "id", Value: id, Reason: "is used by more than one host"}
		}
		seen[h.ID] = struct{}{}

		if !host.IsValidIPv4(h.Address) {
			return nil, &host.ValidationError{Field: "ip", Value: h.Address, Reason: "must be a dotted-quad IPv4 address"}
		}
		if h.Name == "" {
			h.Name = s.lookupName(ctx, h.Address)
		}

		h.StatusHistory = trimHistory(h.StatusHistory, s.historyWindow)
		out = append(out, h)
	}
	return out, nil
}

// lookupName returns the PTR name of address, or address when no resolver
// is configured or the lookup fails.
func (s *Server) lookupName(ctx context.Context, address string) string {
	if s.resolver == nil {
		return address
	}

	ctx, cancel := context.WithTimeout(ctx, s.resolverTimeout)
	defer cancel()

	name, err := s.resolver.LookupName(ctx, address)
	if err != nil {
		s.logger.Debugf("No PTR name for %s, using address: %v", address, err)
		return address
	}
	return name
}

// trimHistory keeps the newest window samples. A nil history becomes empty.
func trimHistory(history []host.Liveness, window int) []host.Liveness {
	if history == nil {
		return []host.Liveness{}
	}
	if window > 0 && len(history) > window {
		return append([]host.Liveness(nil), history[len(history)-window:]...)
	}
	return history
}
