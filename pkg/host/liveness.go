package host

import (
	"bytes"
	"fmt"
)

// Liveness is a single up/down sample. The prober writes samples as 0 or 1,
// so Liveness encodes to those numbers and decodes from either numbers or
// JSON booleans.
type Liveness bool

// Samples converts a list of booleans into liveness samples.
func Samples(vals ...bool) []Liveness {
	out := make([]Liveness, len(vals))
	for i, v := range vals {
		out[i] = Liveness(v)
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (l Liveness) MarshalJSON() ([]byte, error) {
	if l {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON implements json.Unmarshaler. It accepts 0, 1, true, false
// and null; null decodes as down.
func (l *Liveness) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "1", "true":
		*l = true
	case "0", "false", "null":
		*l = false
	default:
		return fmt.Errorf("invalid liveness sample %s: want 0, 1, true or false", data)
	}
	return nil
}
