// Package store persists serialized checkpoints by ID. Implementations back
// onto SQLite, a filesystem, Redis and S3-compatible object storage; a
// replicator typically keeps its own copy in a local store and reads the
// peer's copy from a remote one.
package store
