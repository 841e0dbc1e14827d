package checkpoint

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/viant/syncpoint/marker"
	"github.com/viant/syncpoint/seqset"
)

// Checkpoint is the replication progress state.
type Checkpoint struct {
	completed   seqset.Set
	lastChecked seqset.Sequence
	remote      marker.Marker

	logger *zap.Logger
}

// Opt configures a Checkpoint.
type Opt func(*Checkpoint)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Opt {
	return func(c *Checkpoint) {
		c.logger = logger
	}
}

// New returns an empty checkpoint: only the sentinel sequence is complete and
// the remote marker is empty.
func New(opts ...Opt) *Checkpoint {
	c := &Checkpoint{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.ResetLocal()
	return c
}

// Parse returns a checkpoint populated from a serialized document. Malformed
// input is logged and yields an empty checkpoint.
func Parse(data []byte, opts ...Opt) *Checkpoint {
	c := New(opts...)
	c.Deserialize(data)
	return c
}

// ResetLocal forgets local progress. The remote marker is left unchanged.
func (c *Checkpoint) ResetLocal() {
	c.completed.Clear()
	c.completed.Add(0, 1)
	c.lastChecked = 0
}

// LocalMinSequence returns the highest sequence such that it and every
// sequence below it are complete.
func (c *Checkpoint) LocalMinSequence() seqset.Sequence {
	first, ok := c.completed.First()
	if !ok {
		panic("checkpoint: completed sequence set is empty")
	}
	return first.Last - 1
}

// AddPendingSequence records that seq is being sent and is no longer known to
// be complete. The sentinel sequence 0 always stays complete.
func (c *Checkpoint) AddPendingSequence(seq seqset.Sequence) {
	c.lastChecked = max(c.lastChecked, seq)
	if seq == 0 {
		return
	}
	c.completed.Remove(seq)
}

// CompletedSequence marks seq as confirmed complete.
func (c *Checkpoint) CompletedSequence(seq seqset.Sequence) {
	c.completed.AddOne(seq)
}

// CompletedRange marks [first, last) as confirmed complete.
func (c *Checkpoint) CompletedRange(first, last seqset.Sequence) {
	c.completed.Add(first, last)
}

// IsSequenceCompleted reports whether seq is confirmed complete.
func (c *Checkpoint) IsSequenceCompleted(seq seqset.Sequence) bool {
	return c.completed.Contains(seq)
}

// PendingSequenceCount returns the number of sequences that were attempted or
// skipped but are not confirmed: the gaps between completed ranges plus the
// tail from the last completed range up to LastChecked.
func (c *Checkpoint) PendingSequenceCount() uint64 {
	var (
		count uint64
		end   seqset.Sequence
	)
	for r := range c.completed.All() {
		count += uint64(r.First - end)
		end = r.Last
	}
	if end > 0 && c.lastChecked > end-1 {
		count += uint64(c.lastChecked - (end - 1))
	}
	return count
}

// LastChecked returns the highest sequence ever passed to AddPendingSequence.
func (c *Checkpoint) LastChecked() seqset.Sequence { return c.lastChecked }

// Completed returns a copy of the completed sequence set.
func (c *Checkpoint) Completed() seqset.Set { return c.completed.Clone() }

// Remote returns the peer's progress marker.
func (c *Checkpoint) Remote() marker.Marker { return c.remote }

// SetRemoteMinSequence replaces the remote marker and reports whether it
// changed.
func (c *Checkpoint) SetRemoteMinSequence(m marker.Marker) bool {
	if m.Equal(c.remote) {
		return false
	}
	c.remote = m
	return true
}

// Clone returns an independent copy of c.
func (c *Checkpoint) Clone() *Checkpoint {
	return &Checkpoint{
		completed:   c.completed.Clone(),
		lastChecked: c.lastChecked,
		remote:      c.remote,
		logger:      c.logger,
	}
}

func (c *Checkpoint) String() string {
	return fmt.Sprintf("completed=%s lastChecked=%d remote=%s", c.completed, c.lastChecked, c.remote)
}
