package replsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/viant/syncpoint/checkpoint"
	"github.com/viant/syncpoint/marker"
	"github.com/viant/syncpoint/seqset"
	"github.com/viant/syncpoint/store"
)

// Opt configures a Session.
type Opt func(*Session)

// WithLogger specifies the logger for the Session and its checkpoint.
func WithLogger(logger *zap.Logger) Opt {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithClock specifies the clock used for checkpoint timestamps and SavedAt.
func WithClock(clock clockwork.Clock) Opt {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithPeer specifies where the peer keeps its copy of the checkpoint. Without
// a peer the local copy is trusted as is.
func WithPeer(peer store.Store) Opt {
	return func(s *Session) {
		s.peer = peer
	}
}

// Session owns the checkpoint of one replication session. All methods are
// safe for concurrent use, so status reporters may call Status while the
// replicator mutates the checkpoint.
type Session struct {
	cfg    Config
	local  store.Store
	peer   store.Store
	logger *zap.Logger
	clock  clockwork.Clock

	mu      sync.Mutex
	cp      *checkpoint.Checkpoint
	version uint64
	saved   uint64
	matched bool
	savedAt time.Time
}

// NewSession creates a session for cfg.CheckpointID persisted in local. The
// checkpoint starts empty until Open loads it.
func NewSession(cfg Config, local store.Store, opts ...Opt) (*Session, error) {
	if cfg.CheckpointID == "" {
		return nil, errors.New("replsync: checkpoint id is empty")
	}
	if local == nil {
		return nil, errors.New("replsync: local store is nil")
	}
	s := &Session{
		cfg:     cfg,
		local:   local,
		logger:  zap.NewNop(),
		clock:   clockwork.NewRealClock(),
		matched: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("checkpoint", cfg.CheckpointID))
	s.cp = checkpoint.New(checkpoint.WithLogger(s.logger))
	return s, nil
}

// Open loads the local checkpoint and, when a peer is configured, reconciles
// it with the peer's copy. A missing peer copy counts as an empty checkpoint,
// which resets local progress: the peer has nothing confirming it. Open
// reports whether both copies matched; on mismatch the session is left dirty
// so the next Save persists the merged state.
func (s *Session) Open(ctx context.Context) (bool, error) {
	body, err := s.get(ctx, s.local)
	if err != nil {
		return false, fmt.Errorf("load local checkpoint: %w", err)
	}
	cp := checkpoint.Parse(body, checkpoint.WithLogger(s.logger))

	matched := true
	if s.peer != nil {
		peerBody, err := s.get(ctx, s.peer)
		if err != nil {
			return false, fmt.Errorf("load peer checkpoint: %w", err)
		}
		peerCp := checkpoint.Parse(peerBody, checkpoint.WithLogger(s.logger))
		matched = cp.ValidateWith(peerCp)
		if matched {
			reconcileTotal.WithLabelValues(resultMatch).Inc()
		} else {
			reconcileTotal.WithLabelValues(resultMismatch).Inc()
			s.logger.Info("checkpoint diverged from peer copy, using merged state",
				zap.Stringer("merged", cp))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cp = cp
	s.matched = matched
	s.version++
	if matched {
		s.saved = s.version
	}
	s.updateGauge()
	s.logger.Debug("checkpoint opened",
		zap.Uint64("localMinSequence", uint64(cp.LocalMinSequence())),
		zap.Stringer("remote", cp.Remote()),
		zap.Bool("matched", matched))
	return matched, nil
}

func (s *Session) get(ctx context.Context, st store.Store) ([]byte, error) {
	body, err := st.Get(ctx, s.cfg.CheckpointID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return body, err
}

// MarkPending records that seq is about to be sent.
func (s *Session) MarkPending(seq seqset.Sequence) {
	s.mutate(func(cp *checkpoint.Checkpoint) bool {
		cp.AddPendingSequence(seq)
		return true
	})
}

// Complete records that the peer confirmed seq.
func (s *Session) Complete(seq seqset.Sequence) {
	s.mutate(func(cp *checkpoint.Checkpoint) bool {
		cp.CompletedSequence(seq)
		return true
	})
}

// CompleteRange records that the peer confirmed [first, last).
func (s *Session) CompleteRange(first, last seqset.Sequence) {
	s.mutate(func(cp *checkpoint.Checkpoint) bool {
		cp.CompletedRange(first, last)
		return true
	})
}

// SetRemote records the peer's progress marker and reports whether it
// changed.
func (s *Session) SetRemote(m marker.Marker) bool {
	return s.mutate(func(cp *checkpoint.Checkpoint) bool {
		return cp.SetRemoteMinSequence(m)
	})
}

func (s *Session) mutate(fn func(cp *checkpoint.Checkpoint) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := fn(s.cp)
	if changed {
		s.version++
		s.updateGauge()
	}
	return changed
}

func (s *Session) updateGauge() {
	pendingSequences.WithLabelValues(s.cfg.CheckpointID).Set(float64(s.cp.PendingSequenceCount()))
}

// Dirty reports whether the checkpoint changed since the last Save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version != s.saved
}

// Save serializes the checkpoint and writes it to the local store and then
// to the peer. The session stays dirty if it was mutated while saving.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	version := s.version
	body, err := s.cp.Serialize(checkpoint.EncodeConfig{
		WriteTimestamp: s.cfg.WriteTimestamps,
		Clock:          s.clock,
	})
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("serialize checkpoint: %w", err)
	}

	if err := s.put(ctx, s.local, targetLocal, body); err != nil {
		return err
	}
	if s.peer != nil {
		if err := s.put(ctx, s.peer, targetPeer, body); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved < version {
		s.saved = version
	}
	s.savedAt = s.clock.Now()
	s.logger.Debug("checkpoint saved", zap.ByteString("body", body))
	return nil
}

func (s *Session) put(ctx context.Context, st store.Store, target string, body []byte) error {
	if err := st.Put(ctx, s.cfg.CheckpointID, body); err != nil {
		savesTotal.WithLabelValues(target, resultError).Inc()
		s.logger.Warn("failed to save checkpoint", zap.String("target", target), zap.Error(err))
		return fmt.Errorf("save %s checkpoint: %w", target, err)
	}
	savesTotal.WithLabelValues(target, resultOK).Inc()
	return nil
}

// Checkpoint returns a copy of the current checkpoint.
func (s *Session) Checkpoint() *checkpoint.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cp.Clone()
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		CheckpointID:     s.cfg.CheckpointID,
		LocalMinSequence: uint64(s.cp.LocalMinSequence()),
		LastChecked:      uint64(s.cp.LastChecked()),
		PendingCount:     s.cp.PendingSequenceCount(),
		Completed:        s.cp.Completed().String(),
		Remote:           s.cp.Remote().String(),
		Dirty:            s.version != s.saved,
		Matched:          s.matched,
		SavedAt:          s.savedAt,
	}
}
