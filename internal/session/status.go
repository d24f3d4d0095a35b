package session

// Status describes connectivity of a room session.
type Status int

const (
	// StatusConnecting covers the initial dial and reconnect attempts.
	StatusConnecting Status = iota
	// StatusOpen means frames are flowing.
	StatusOpen
	// StatusClosed is terminal: either Close was called or the reconnect
	// budget ran out.
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}
