// Package mondrian implements multidimensional k-anonymous partitioning:
// the dataset is recursively split along the widest quasi-identifier, a split
// is accepted only when every child group keeps at least k members, and the
// finalized groups are flattened into a generalized, group-labeled view.
package mondrian

import (
	"fmt"

	"github.com/gianmarcomichelini/data-privacy-toolkit/internal/hierarchy"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

// DimensionRange is the per-partition generalization state of one attribute.
// Numeric attributes carry a half-open interval [Low, High); categorical
// attributes reference the hierarchy node of the current generalization level.
// The hierarchy itself is shared and never owned by a range.
type DimensionRange struct {
	Kind models.AttributeKind
	Low  int
	High int
	Node hierarchy.NodeID
}

// Label renders the range the way it appears in the anonymized output: the
// hierarchy node's name, or the interval formatted as "low-high".
func (r DimensionRange) Label(tree *hierarchy.Tree) string {
	if r.Kind == models.AttributeCategorical {
		return tree.Label(r.Node)
	}
	return fmt.Sprintf("%d-%d", r.Low, r.High)
}

// rangeSet is a structural snapshot of dimension ranges. A child partition
// narrows exactly one dimension per split, so it stores only that overlay and
// chains to the parent's snapshot. Lookups walk the chain; writes never touch
// ancestors or siblings.
type rangeSet struct {
	parent *rangeSet
	dim    string
	rng    DimensionRange
	base   map[string]DimensionRange // root snapshot only
}

func newRangeSet(base map[string]DimensionRange) *rangeSet {
	return &rangeSet{base: base}
}

func (s *rangeSet) get(dim string) DimensionRange {
	for n := s; n != nil; n = n.parent {
		if n.dim == dim && n.base == nil {
			return n.rng
		}
		if n.base != nil {
			return n.base[dim]
		}
	}
	return DimensionRange{}
}

func (s *rangeSet) with(dim string, rng DimensionRange) *rangeSet {
	return &rangeSet{parent: s, dim: dim, rng: rng}
}

// cutSet tracks which dimensions may still serve as cut axes on this path.
// Every dimension starts allowable; disallowing is an overlay, so a child's
// narrowed set never propagates back to the parent or to sibling subtrees
// already produced. A disallowed dimension is never re-enabled.
type cutSet struct {
	parent *cutSet
	dim    string
}

func (c *cutSet) allowed(dim string) bool {
	for n := c; n != nil; n = n.parent {
		if n.dim == dim {
			return false
		}
	}
	return true
}

func (c *cutSet) disallow(dim string) *cutSet {
	if !c.allowed(dim) {
		return c
	}
	return &cutSet{parent: c, dim: dim}
}

// Partition is a group of record indices sharing one generalization level per
// dimension; the unit of recursive processing. Once split it is superseded by
// its children; once finalized it becomes part of the immutable result set.
type Partition struct {
	members []int
	ranges  *rangeSet
	cuts    *cutSet
	depth   int
}

// Len returns the number of member records.
func (p *Partition) Len() int { return len(p.members) }

// Members returns the member record indices. The slice must not be modified.
func (p *Partition) Members() []int { return p.members }

// Range returns the partition's generalization state for a dimension.
func (p *Partition) Range(dim string) DimensionRange { return p.ranges.get(dim) }

// Allowed reports whether the dimension may still be a cut axis on this path.
func (p *Partition) Allowed(dim string) bool { return p.cuts.allowed(dim) }

// Depth returns how many accepted splits separate this partition from the
// whole dataset.
func (p *Partition) Depth() int { return p.depth }

// child derives a new partition with one narrowed dimension, inheriting the
// current cut set.
func (p *Partition) child(members []int, dim string, rng DimensionRange) *Partition {
	return &Partition{
		members: members,
		ranges:  p.ranges.with(dim, rng),
		cuts:    p.cuts,
		depth:   p.depth + 1,
	}
}
