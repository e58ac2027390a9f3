package lx200

// OutcomeKind classifies how a command was answered.
type OutcomeKind int

const (
	LocalAnswer OutcomeKind = iota
	Suppressed
	Forwarded
)

func (k OutcomeKind) String() string {
	switch k {
	case LocalAnswer:
		return "local"
	case Suppressed:
		return "suppressed"
	case Forwarded:
		return "forwarded"
	default:
		return "unknown"
	}
}

// Outcome is the single result of dispatching one command. Reply is what
// the client receives; it is always empty for Suppressed.
type Outcome struct {
	Kind  OutcomeKind
	Reply string
}
