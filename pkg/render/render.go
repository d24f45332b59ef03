// Package render draws the host dashboard as plain terminal text: a stats
// line followed by one card per host.
package render

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/kylerisse/pingboard/pkg/host"
	"github.com/kylerisse/pingboard/pkg/store"
)

const (
	// EmptyMessage is shown when the collection has no hosts at all.
	EmptyMessage = "No hosts added yet."
	// NoMatchMessage is shown when a search filters every host out.
	NoMatchMessage = "No matching results found."

	upDot   = "●"
	downDot = "○"
)

// Renderer writes dashboard frames to an io.Writer.
type Renderer struct {
	w    io.Writer
	up   *color.Color
	down *color.Color
	dim  *color.Color
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor forces ANSI colors on or off. By default colors follow the
// terminal detection of github.com/fatih/color.
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		for _, c := range []*color.Color{r.up, r.down, r.dim} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// New returns a Renderer writing to w.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		w:    w,
		up:   color.New(color.FgGreen),
		down: color.New(color.FgRed),
		dim:  color.New(color.Faint),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Source is anything that can hand out a point-in-time copy of the host
// collection, usually a *store.Store.
type Source interface {
	Snapshot() []host.Host
}

// Dashboard draws the stats line and the cards of every host whose name
// contains query, newest id first. Both come from a single snapshot so the
// counts always agree with the cards.
func (r *Renderer) Dashboard(src Source, query string) error {
	hosts := src.Snapshot()
	if err := r.Stats(store.ComputeStats(slices.Values(hosts))); err != nil {
		return err
	}
	return r.Cards(store.Filter(hosts, query), len(hosts))
}

// Stats writes the Total/Online/Down line.
func (r *Renderer) Stats(s store.Stats) error {
	_, err := fmt.Fprintf(r.w, "Total: %d  Online: %s  Down: %s\n\n",
		s.Total,
		r.up.Sprint(s.Online),
		r.down.Sprint(s.Offline),
	)
	return err
}

// Cards writes one card per host. total is the size of the unfiltered
// collection and picks the empty-state message.
func (r *Renderer) Cards(hosts iter.Seq[host.Host], total int) error {
	n := 0
	for h := range hosts {
		if err := r.card(h); err != nil {
			return err
		}
		n++
	}
	if n > 0 {
		return nil
	}

	msg := NoMatchMessage
	if total == 0 {
		msg = EmptyMessage
	}
	_, err := fmt.Fprintln(r.w, r.dim.Sprint(msg))
	return err
}

func (r *Renderer) card(h host.Host) error {
	status := r.down.Sprint(downDot + " DOWN")
	if h.Up() {
		status = r.up.Sprint(upDot + " UP  ")
	}
	_, err := fmt.Fprintf(r.w, "%s  %s  %s  %s\n      %s  %d%% uptime\n",
		status,
		h.Name,
		h.Address,
		r.dim.Sprintf("#%d", h.ID),
		r.history(h.StatusHistory),
		h.Uptime(),
	)
	return err
}

// history draws one dot per sample, oldest first.
func (r *Renderer) history(samples []host.Liveness) string {
	if len(samples) == 0 {
		return r.dim.Sprint("-")
	}
	var b strings.Builder
	for _, s := range samples {
		if s {
			b.WriteString(r.up.Sprint(upDot))
		} else {
			b.WriteString(r.down.Sprint(downDot))
		}
	}
	return b.String()
}
