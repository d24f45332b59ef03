package store

import (
	"iter"

	"github.com/kylerisse/pingboard/pkg/host"
)

// Stats is the online/offline summary of a host collection.
type Stats struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
}

// ComputeStats counts hosts whose current status is up. Offline is always
// Total minus Online.
func ComputeStats(hosts iter.Seq[host.Host]) Stats {
	var st Stats
	for h := range hosts {
		st.Total++
		if h.Up() {
			st.Online++
		}
	}
	st.Offline = st.Total - st.Online
	return st
}
