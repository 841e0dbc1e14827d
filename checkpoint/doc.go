// Package checkpoint records replication progress for one replication
// session: the sparse set of local sequences confirmed complete, the highest
// local sequence attempted, and the peer's own progress marker.
//
// A Checkpoint serializes to a small JSON document that both the local store
// and the remote peer persist. When the two copies disagree, ValidateWith
// merges them conservatively so that no sequence is considered confirmed
// unless both copies agree on it.
//
// Checkpoint is not safe for concurrent use; callers that share one between
// goroutines must provide their own locking or read a Clone.
package checkpoint
