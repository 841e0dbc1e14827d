// Package seqset implements a sparse set of sequence numbers stored as
// sorted, disjoint half-open ranges. It is used to record which local
// sequences a replicator has confirmed complete.
package seqset
