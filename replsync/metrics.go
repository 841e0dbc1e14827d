package replsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "syncpoint"
	subsystem = "replsync"
)

var (
	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reconcile_total",
		Help:      "Checkpoint reconciliations with the peer copy, by outcome",
	}, []string{"result"})

	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "saves_total",
		Help:      "Checkpoint writes, by target store and outcome",
	}, []string{"target", "result"})

	pendingSequences = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pending_sequences",
		Help:      "Sequences attempted but not yet confirmed complete",
	}, []string{"checkpoint"})
)

const (
	resultMatch    = "match"
	resultMismatch = "mismatch"
	resultOK       = "ok"
	resultError    = "error"
	targetLocal    = "local"
	targetPeer     = "peer"
)
