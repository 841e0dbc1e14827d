// Package replsync drives a checkpoint through one replication session: it
// loads the local copy, reconciles it with the copy held by the remote peer,
// records pending and confirmed sequences as replication proceeds, and
// persists both copies when the caller decides to checkpoint.
package replsync
