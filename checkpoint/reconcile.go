package checkpoint

import (
	"go.uber.org/zap"

	"github.com/viant/syncpoint/marker"
	"github.com/viant/syncpoint/seqset"
)

// ValidateWith compares c with the peer's copy of the same checkpoint and
// resolves any divergence conservatively. It returns true only when c was
// left unchanged.
//
// Completed sets that differ are replaced by their intersection, so a
// sequence stays confirmed only if both copies confirm it. A differing
// numeric remote marker rolls back to the peer's value when the local one is
// newer and is kept otherwise; a differing non-numeric marker is cleared,
// forcing the remote side to restart from scratch.
func (c *Checkpoint) ValidateWith(peer *Checkpoint) bool {
	completed, completedMatch := reconcileCompleted(c.logger, c.completed, peer.completed)
	remote, remoteMatch := reconcileRemote(c.logger, c.remote, peer.remote)
	c.completed = completed
	c.remote = remote
	return completedMatch && remoteMatch
}

func reconcileCompleted(logger *zap.Logger, local, peer seqset.Set) (seqset.Set, bool) {
	if local.Equal(peer) {
		return local, true
	}
	logger.Info("local sequence mismatch, rolling back to a failsafe; some redundant changes may be proposed",
		zap.Stringer("local", local),
		zap.Stringer("peer", peer))
	return seqset.Intersection(local, peer), false
}

func reconcileRemote(logger *zap.Logger, local, peer marker.Marker) (marker.Marker, bool) {
	if local.IsEmpty() || local.Equal(peer) {
		return local, true
	}
	logger.Info("remote sequence mismatch",
		zap.Stringer("local", local),
		zap.Stringer("peer", peer))
	order, err := local.Compare(peer)
	if err != nil {
		logger.Warn("non-numeric remote sequence, resetting replication back to start; redundant changes will be proposed",
			zap.Error(err))
		return marker.Marker{}, false
	}
	if order > 0 {
		logger.Info("rolling back to earlier remote sequence from peer; some redundant changes may be proposed")
		return peer, false
	}
	logger.Info("ignoring remote sequence on peer since local one is older; some redundant changes may be proposed")
	return local, true
}
