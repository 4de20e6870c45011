// Package hierarchy builds and owns the generalization trees used to
// generalize categorical quasi-identifiers. A tree's leaves correspond 1:1 to
// raw category values; internal nodes are successively coarser groupings.
// Trees are built once, then shared read-only across every partition.
package hierarchy

import (
	"fmt"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
)

// NodeID addresses a node inside a Tree's arena.
type NodeID int

// Root is the NodeID of every tree's root.
const Root NodeID = 0

// Tree is a generalization hierarchy stored as an arena of nodes. Leaves are
// laid out in depth-first order so that every node's leaf set is a contiguous
// interval [leafBegin, leafEnd) over that order; membership tests and leaf
// counts are O(1).
type Tree struct {
	labels   []string
	parents  []NodeID
	children [][]NodeID

	leafBegin []int
	leafEnd   []int
	leafOrder []NodeID       // leaf nodes in depth-first order
	leafIndex map[string]int // leaf label -> position in leafOrder
}

// Label returns the node's label.
func (t *Tree) Label(id NodeID) string { return t.labels[id] }

// Parent returns the node's parent, or -1 for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.parents[id] }

// Children returns the node's direct children. The returned slice must not be
// modified.
func (t *Tree) Children(id NodeID) []NodeID { return t.children[id] }

// IsLeaf reports whether the node has no children.
func (t *Tree) IsLeaf(id NodeID) bool { return len(t.children[id]) == 0 }

// LeafCount returns the number of leaves reachable from the node. A childless
// node's leaf set is itself, so its count is 1.
func (t *Tree) LeafCount(id NodeID) int { return t.leafEnd[id] - t.leafBegin[id] }

// LeafLabels returns the labels of all leaves reachable from the node, in
// depth-first order.
func (t *Tree) LeafLabels(id NodeID) []string {
	out := make([]string, 0, t.LeafCount(id))
	for i := t.leafBegin[id]; i < t.leafEnd[id]; i++ {
		out = append(out, t.labels[t.leafOrder[i]])
	}
	return out
}

// LeafFor returns the leaf node carrying the given raw value.
func (t *Tree) LeafFor(value string) (NodeID, bool) {
	idx, ok := t.leafIndex[value]
	if !ok {
		return -1, false
	}
	return t.leafOrder[idx], true
}

// Covers reports whether the raw value lies in the node's leaf set.
func (t *Tree) Covers(id NodeID, value string) bool {
	idx, ok := t.leafIndex[value]
	if !ok {
		return false
	}
	return idx >= t.leafBegin[id] && idx < t.leafEnd[id]
}

// Builder constructs a Tree. Nodes are added top-down; Build freezes the tree
// and computes the leaf layout.
type Builder struct {
	labels   []string
	parents  []NodeID
	children [][]NodeID
}

// NewBuilder starts a tree with the given root label.
func NewBuilder(rootLabel string) *Builder {
	return &Builder{
		labels:   []string{rootLabel},
		parents:  []NodeID{-1},
		children: [][]NodeID{nil},
	}
}

// Add appends a child node under parent and returns its id.
func (b *Builder) Add(parent NodeID, label string) NodeID {
	id := NodeID(len(b.labels))
	b.labels = append(b.labels, label)
	b.parents = append(b.parents, parent)
	b.children = append(b.children, nil)
	b.children[parent] = append(b.children[parent], id)
	return id
}

// AddAll appends one child per label under parent, preserving order.
func (b *Builder) AddAll(parent NodeID, labels ...string) {
	for _, l := range labels {
		b.Add(parent, l)
	}
}

// Build freezes the tree. It fails if two leaves carry the same label, since
// every raw value must map to exactly one leaf.
func (b *Builder) Build() (*Tree, error) {
	t := &Tree{
		labels:    b.labels,
		parents:   b.parents,
		children:  b.children,
		leafBegin: make([]int, len(b.labels)),
		leafEnd:   make([]int, len(b.labels)),
		leafIndex: make(map[string]int),
	}

	var walk func(id NodeID) error
	walk = func(id NodeID) error {
		t.leafBegin[id] = len(t.leafOrder)
		if t.IsLeaf(id) {
			if _, dup := t.leafIndex[t.labels[id]]; dup {
				return errors.WrapError(errors.ErrInvalidHierarchy,
					errors.ErrorTypeConfiguration, errors.CodeInvalidHierarchy,
					fmt.Sprintf("duplicate leaf label %q", t.labels[id]))
			}
			t.leafIndex[t.labels[id]] = len(t.leafOrder)
			t.leafOrder = append(t.leafOrder, id)
		} else {
			for _, c := range t.children[id] {
				if err := walk(c); err != nil {
					return err
				}
			}
		}
		t.leafEnd[id] = len(t.leafOrder)
		return nil
	}
	if err := walk(Root); err != nil {
		return nil, err
	}
	return t, nil
}

// MustBuild is Build for hand-authored taxonomies that are known to be valid.
func (b *Builder) MustBuild() *Tree {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

// Catalog maps categorical attribute names to their generalization trees.
// Built once at initialization; read-only afterwards.
type Catalog struct {
	trees map[string]*Tree
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{trees: make(map[string]*Tree)}
}

// Register binds an attribute name to its tree.
func (c *Catalog) Register(attribute string, tree *Tree) {
	c.trees[attribute] = tree
}

// Tree returns the tree for an attribute.
func (c *Catalog) Tree(attribute string) (*Tree, bool) {
	t, ok := c.trees[attribute]
	return t, ok
}

// Has reports whether the attribute has a registered tree.
func (c *Catalog) Has(attribute string) bool {
	_, ok := c.trees[attribute]
	return ok
}

// Attributes returns the number of registered trees.
func (c *Catalog) Attributes() int { return len(c.trees) }
