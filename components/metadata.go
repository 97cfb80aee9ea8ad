package components

// HuntState is the current state of a boid's hunting state machine.
type HuntState uint8

const (
	HuntIdle HuntState = iota
	HuntSearching
	HuntPursuing
	HuntAttacking
)

// String returns the display name for a HuntState.
func (s HuntState) String() string {
	names := HuntStateNames()
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// HuntStateNames returns the display names for all hunt states.
// The order matches the HuntState constants.
func HuntStateNames() []string {
	return []string{"Idle", "Searching", "Pursuing", "Attacking"}
}

// HuntStateCount returns the number of hunt states.
func HuntStateCount() int {
	return len(HuntStateNames())
}
