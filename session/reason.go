package session

// Reason is why a session was invalidated. The set is closed.
type Reason int

const (
	// Logout marks a session the user ended.
	Logout Reason = iota + 1
	// Deauthorization marks a session the server stopped accepting.
	Deauthorization
)

func (r Reason) String() string {
	switch r {
	case Logout:
		return "logout"
	case Deauthorization:
		return "deauthorization"
	default:
		return "unknown"
	}
}

func (r Reason) valid() bool {
	return r == Logout || r == Deauthorization
}

// EventKind identifies which observable signal changed.
type EventKind int

const (
	RequestsAvailableChanged EventKind = iota + 1
	CompletionsAvailableChanged
	Invalidated
)

func (k EventKind) String() string {
	switch k {
	case RequestsAvailableChanged:
		return "requests_available"
	case CompletionsAvailableChanged:
		return "completions_available"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Event is published to observers when a signal changes. Available is set for
// the two queue kinds; Reason is set for Invalidated.
type Event struct {
	Kind      EventKind
	Available bool
	Reason    Reason
}
