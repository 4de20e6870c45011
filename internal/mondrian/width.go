package mondrian

import (
	"sort"

	"github.com/gianmarcomichelini/data-privacy-toolkit/internal/hierarchy"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

// widthEvaluator scores how ungeneralized a partition still is along each
// dimension, normalized to [0,1]. Categorical width is the fraction of the
// root's leaves still reachable; numeric width is the interval length over the
// global interval length. Width 0 means the dimension cannot be narrowed
// further.
type widthEvaluator struct {
	schema  *models.Schema
	catalog *hierarchy.Catalog
	global  map[string]DimensionRange // whole-dataset ranges, computed once
}

func newWidthEvaluator(schema *models.Schema, catalog *hierarchy.Catalog, global map[string]DimensionRange) *widthEvaluator {
	return &widthEvaluator{schema: schema, catalog: catalog, global: global}
}

func (w *widthEvaluator) width(p *Partition, dim string) float64 {
	rng := p.Range(dim)
	if rng.Kind == models.AttributeCategorical {
		tree, _ := w.catalog.Tree(dim)
		rootLeaves := tree.LeafCount(hierarchy.Root)
		if rootLeaves == 0 {
			return 0
		}
		if tree.IsLeaf(rng.Node) {
			return 0
		}
		return float64(tree.LeafCount(rng.Node)) / float64(rootLeaves)
	}

	globalWidth := w.global[dim].High - w.global[dim].Low
	if globalWidth <= 0 {
		return 0
	}
	return float64(rng.High-rng.Low) / float64(globalWidth)
}

// widths computes the score of every quasi-identifier dimension.
func (w *widthEvaluator) widths(p *Partition) map[string]float64 {
	out := make(map[string]float64, len(w.schema.QuasiIdentifiers))
	for _, qi := range w.schema.QuasiIdentifiers {
		out[qi.Name] = w.width(p, qi.Name)
	}
	return out
}

// rank orders the allowable dimensions by descending width. Ties are broken
// by declaration order; the sort is stable so repeated runs rank identically.
func (w *widthEvaluator) rank(p *Partition, widths map[string]float64) []string {
	ranked := make([]string, 0, len(w.schema.QuasiIdentifiers))
	for _, qi := range w.schema.QuasiIdentifiers {
		if p.Allowed(qi.Name) {
			ranked = append(ranked, qi.Name)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return widths[ranked[i]] > widths[ranked[j]]
	})
	return ranked
}
