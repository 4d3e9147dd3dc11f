package store

import "fmt"

// cycleRestartThreshold is the timeRemaining jump (in seconds) above which a
// machine is considered to have started a fresh cycle, voiding any claimed
// user.
const cycleRestartThreshold = 5

// ValidationError signals that an entity write was rejected before touching
// the database. It is fatal to that single entity only.
type ValidationError struct {
	OpaqueID string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("machine %s: %s", e.OpaqueID, e.Reason)
}

// Summary reports what a single reconciliation pass did to the machine table.
type Summary struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
	Available int
	InUse     int
}
