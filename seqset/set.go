package seqset

import (
	"iter"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Sequence is a sequence number assigned by the source store. Zero is a
// sentinel meaning "before the first real sequence".
type Sequence uint64

// Range is the half-open interval [First, Last).
type Range struct {
	First Sequence
	Last  Sequence
}

// Len returns the number of sequences in the range.
func (r Range) Len() uint64 { return uint64(r.Last - r.First) }

// Set is an ordered collection of disjoint, non-adjacent ranges. The zero
// value is an empty set. A Set is not safe for concurrent use.
type Set struct {
	ranges []Range
}

// New returns a set holding the given ranges.
func New(ranges ...Range) Set {
	var s Set
	for _, r := range ranges {
		s.Add(r.First, r.Last)
	}
	return s
}

// Add inserts [first, last), coalescing it with every range it overlaps or
// touches. An empty or inverted interval is ignored.
func (s *Set) Add(first, last Sequence) {
	if first >= last {
		return
	}
	// i: first range that ends at or after first (can merge on the left).
	i := sort.Search(len(s.ranges), func(k int) bool { return s.ranges[k].Last >= first })
	// j: first range that starts after last (cannot merge on the right).
	j := sort.Search(len(s.ranges), func(k int) bool { return s.ranges[k].First > last })
	merged := Range{First: first, Last: last}
	if i < j {
		merged.First = min(first, s.ranges[i].First)
		merged.Last = max(last, s.ranges[j-1].Last)
	}
	s.ranges = slices.Replace(s.ranges, i, j, merged)
}

// AddOne inserts a single sequence.
func (s *Set) AddOne(seq Sequence) {
	s.Add(seq, seq+1)
}

// Remove deletes seq from the set, splitting the range that contains it when
// seq lies strictly inside.
func (s *Set) Remove(seq Sequence) {
	i := sort.Search(len(s.ranges), func(k int) bool { return s.ranges[k].Last > seq })
	if i == len(s.ranges) || s.ranges[i].First > seq {
		return
	}
	r := s.ranges[i]
	switch {
	case r.First == seq && r.Last == seq+1:
		s.ranges = slices.Delete(s.ranges, i, i+1)
	case r.First == seq:
		s.ranges[i].First++
	case r.Last == seq+1:
		s.ranges[i].Last--
	default:
		s.ranges[i].Last = seq
		s.ranges = slices.Insert(s.ranges, i+1, Range{First: seq + 1, Last: r.Last})
	}
}

// Contains reports whether seq is in the set.
func (s Set) Contains(seq Sequence) bool {
	i := sort.Search(len(s.ranges), func(k int) bool { return s.ranges[k].Last > seq })
	return i < len(s.ranges) && s.ranges[i].First <= seq
}

// Clear removes every range.
func (s *Set) Clear() {
	s.ranges = nil
}

// RangesCount returns the number of disjoint ranges.
func (s Set) RangesCount() int { return len(s.ranges) }

// Empty reports whether the set holds no ranges.
func (s Set) Empty() bool { return len(s.ranges) == 0 }

// First returns the lowest range.
func (s Set) First() (Range, bool) {
	if len(s.ranges) == 0 {
		return Range{}, false
	}
	return s.ranges[0], true
}

// All iterates the ranges in ascending order.
func (s Set) All() iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for _, r := range s.ranges {
			if !yield(r) {
				return
			}
		}
	}
}

// Ranges returns a copy of the ranges in ascending order.
func (s Set) Ranges() []Range {
	return slices.Clone(s.ranges)
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	return Set{ranges: slices.Clone(s.ranges)}
}

// Equal reports whether both sets hold exactly the same ranges.
func (s Set) Equal(other Set) bool {
	return slices.Equal(s.ranges, other.ranges)
}

// Intersection returns the sequences present in both a and b.
func Intersection(a, b Set) Set {
	var out Set
	i, j := 0, 0
	for i < len(a.ranges) && j < len(b.ranges) {
		ra, rb := a.ranges[i], b.ranges[j]
		first := max(ra.First, rb.First)
		last := min(ra.Last, rb.Last)
		if first < last {
			out.ranges = append(out.ranges, Range{First: first, Last: last})
		}
		if ra.Last < rb.Last {
			i++
		} else {
			j++
		}
	}
	return out
}

// String renders the set as e.g. "[0, 5-9, 12]", where multi-element ranges
// are shown with an inclusive upper bound.
func (s Set) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for n, r := range s.ranges {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatUint(uint64(r.First), 10))
		if r.Last != r.First+1 {
			sb.WriteByte('-')
			sb.WriteString(strconv.FormatUint(uint64(r.Last-1), 10))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
