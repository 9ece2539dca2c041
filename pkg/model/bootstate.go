package model

// BootState is the phase of the boot-confirmation state machine, derived
// from the two sentinel flag files plus the staging tree.
type BootState string

const (
	// StateNoPending means no deployment is staged or awaiting confirmation.
	StateNoPending BootState = "no-pending"

	// StateStaged means content is staged off-path, not yet applied.
	StateStaged BootState = "staged"

	// StatePending means a commit has been applied and the machine has not
	// yet proven it boots.
	StatePending BootState = "pending"

	// StateVerified means the last committed deployment survived its dwell
	// window on a stable system.
	StateVerified BootState = "verified"
)

func (s BootState) String() string {
	return string(s)
}
