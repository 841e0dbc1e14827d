package replsync

import "time"

// Config captures the settings of one replication session.
type Config struct {
	// CheckpointID identifies the checkpoint in both the local and peer
	// stores. See CheckpointID for deriving it.
	CheckpointID string

	// WriteTimestamps adds the save time to every persisted checkpoint.
	// Disable it where stored bodies must be deterministic.
	WriteTimestamps bool
}

// DefaultConfig returns a Config with timestamps enabled.
func DefaultConfig() Config {
	return Config{WriteTimestamps: true}
}

// Status is a point-in-time view of a session's checkpoint, safe to hand to
// goroutines other than the one driving replication.
type Status struct {
	CheckpointID     string
	LocalMinSequence uint64
	LastChecked      uint64
	PendingCount     uint64
	Completed        string
	Remote           string

	// Dirty is set when the checkpoint changed since it was last saved.
	Dirty bool
	// Matched reports whether the last reconciliation with the peer found
	// both copies consistent.
	Matched bool
	// SavedAt is the time of the last successful Save, zero if none.
	SavedAt time.Time
}
