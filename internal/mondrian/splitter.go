package mondrian

import (
	"sort"

	"github.com/gianmarcomichelini/data-privacy-toolkit/internal/hierarchy"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

// splitter produces the ordered child partitions of a cut. Children are
// pairwise disjoint and their union equals the parent's member set exactly,
// regardless of dimension type.
type splitter struct {
	dataset *models.Dataset
	catalog *hierarchy.Catalog
}

func newSplitter(dataset *models.Dataset, catalog *hierarchy.Catalog) *splitter {
	return &splitter{dataset: dataset, catalog: catalog}
}

func (s *splitter) split(p *Partition, dim string) []*Partition {
	if p.Range(dim).Kind == models.AttributeCategorical {
		return s.splitCategorical(p, dim)
	}
	return s.splitNumeric(p, dim)
}

// splitCategorical descends one hierarchy level: one child partition per
// direct child of the current node, members filtered by the child's leaf set.
func (s *splitter) splitCategorical(p *Partition, dim string) []*Partition {
	tree, _ := s.catalog.Tree(dim)
	rng := p.Range(dim)

	children := tree.Children(rng.Node)
	out := make([]*Partition, 0, len(children))
	for _, node := range children {
		members := make([]int, 0)
		for _, idx := range p.Members() {
			if tree.Covers(node, s.dataset.Records[idx].Values[dim]) {
				members = append(members, idx)
			}
		}
		childRange := DimensionRange{Kind: models.AttributeCategorical, Node: node}
		out = append(out, p.child(members, dim, childRange))
	}
	return out
}

// splitNumeric bisects the interval at the median of the members' values,
// truncated to an integer, producing [low, median) and [median, high).
// Duplicate values concentrated at the median may leave one child empty or
// small; that is legitimate and handled by the acceptance check, not here.
func (s *splitter) splitNumeric(p *Partition, dim string) []*Partition {
	rng := p.Range(dim)
	median := s.medianOf(p, dim)

	intervals := []DimensionRange{
		{Kind: models.AttributeNumeric, Low: rng.Low, High: median},
		{Kind: models.AttributeNumeric, Low: median, High: rng.High},
	}

	out := make([]*Partition, 0, len(intervals))
	for _, iv := range intervals {
		members := make([]int, 0)
		for _, idx := range p.Members() {
			v := s.dataset.Records[idx].Numbers[dim]
			if v >= iv.Low && v < iv.High {
				members = append(members, idx)
			}
		}
		out = append(out, p.child(members, dim, iv))
	}
	return out
}

// medianOf returns the median of the members' values for the dimension,
// truncated toward zero. For an even member count the median is the mean of
// the two middle values.
func (s *splitter) medianOf(p *Partition, dim string) int {
	values := make([]int, 0, p.Len())
	for _, idx := range p.Members() {
		values = append(values, s.dataset.Records[idx].Numbers[dim])
	}
	sort.Ints(values)

	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return int(float64(values[n/2-1]+values[n/2]) / 2)
}
