package syncer

// State is the engine's position in the authentication lifecycle.
//
//	Unauthenticated -> Authenticating -> Synced -> Synced ...
//
// A failed authentication returns to Unauthenticated, as does an auth
// rejection seen on any later fetch or push.
type State int

const (
	// Unauthenticated means no fetch has succeeded with the current credential.
	Unauthenticated State = iota
	// Authenticating means the first authenticated fetch is in flight.
	Authenticating
	// Synced means the store holds a snapshot accepted by the backend.
	Synced
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Synced:
		return "synced"
	default:
		return "unknown"
	}
}
