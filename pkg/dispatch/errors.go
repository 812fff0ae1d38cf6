package dispatch

import "errors"

// Sentinel errors for the SendTo destination-resolution taxonomy. Wrap
// these with fmt.Errorf("...: %w", ErrX) so callers can still match with
// errors.Is after the message is enriched with the destination.
var (
	// ErrUnknownDestination is returned when SendTo's destination (a
	// connection id or dpid) is not registered anywhere.
	ErrUnknownDestination = errors.New("dispatch: unknown destination")

	// ErrSwitchOffline is returned when a dpid is known but its current
	// connection is not ESTABLISHED.
	ErrSwitchOffline = errors.New("dispatch: switch offline")
)

// DestinationError wraps a send failure with the destination that could
// not be reached, implementing errors.Is against the taxonomy sentinels
// above via Unwrap.
type DestinationError struct {
	Destination string
	Err         error
}

func (e *DestinationError) Error() string {
	return "dispatch: send to " + e.Destination + ": " + e.Err.Error()
}

func (e *DestinationError) Unwrap() error { return e.Err }
