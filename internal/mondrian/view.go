package mondrian

import (
	"sort"

	"github.com/gianmarcomichelini/data-privacy-toolkit/internal/hierarchy"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

// buildView flattens the finalized partitions into the anonymized output.
// Partitions are consumed in discovery order and numbered densely from zero;
// every member row gets the partition's generalized labels on quasi-identifier
// columns and its raw values everywhere else. The view is finally re-sorted by
// original row identifier to restore input order.
func buildView(dataset *models.Dataset, catalog *hierarchy.Catalog, finalized []*Partition) *Result {
	records := make([]models.AnonymizedRecord, 0, dataset.Len())

	for groupID, p := range finalized {
		labels := make(map[string]string, len(dataset.Schema.QuasiIdentifiers))
		for _, qi := range dataset.Schema.QuasiIdentifiers {
			var tree *hierarchy.Tree
			if qi.Kind == models.AttributeCategorical {
				tree, _ = catalog.Tree(qi.Name)
			}
			labels[qi.Name] = p.Range(qi.Name).Label(tree)
		}

		for _, idx := range p.Members() {
			rec := dataset.Records[idx]
			values := make(map[string]string, len(rec.Values))
			for col, v := range rec.Values {
				if label, ok := labels[col]; ok {
					values[col] = label
				} else {
					values[col] = v
				}
			}
			records = append(records, models.AnonymizedRecord{
				OriginalID: rec.OriginalID,
				GroupID:    groupID,
				Values:     values,
			})
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].OriginalID < records[j].OriginalID
	})

	return &Result{Records: records, Partitions: finalized}
}
