package manager

// Affordances reports which controls a front end should enable.
type Affordances struct {
	CanConnect    bool
	CanDisconnect bool
}

// String returns a short human-readable form, e.g. "connect" or "disconnect".
func (a Affordances) String() string {
	switch {
	case a.CanConnect && a.CanDisconnect:
		return "connect,disconnect"
	case a.CanConnect:
		return "connect"
	case a.CanDisconnect:
		return "disconnect"
	default:
		return "none"
	}
}
