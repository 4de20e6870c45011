package mondrian

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gianmarcomichelini/data-privacy-toolkit/internal/hierarchy"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

// Config contains configuration for the partitioning engine.
type Config struct {
	K int `json:"k"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{K: 10}
}

// Engine recursively partitions a dataset until every group that an accepted
// split produced holds at least K members, then rebuilds the dataset as a
// generalized, group-labeled view.
type Engine struct {
	config  *Config
	catalog *hierarchy.Catalog
	logger  *logrus.Logger
	metrics *Metrics
}

// Result is the outcome of one anonymization run.
type Result struct {
	// Records is the anonymized view, sorted by original row identifier.
	Records []models.AnonymizedRecord
	// Partitions holds the finalized partitions in discovery order; the
	// position of a partition is its group identifier.
	Partitions []*Partition
	// Degenerate is set when the whole input was smaller than K, in which
	// case the single resulting group violates k-anonymity. Callers must
	// not treat such output as anonymous.
	Degenerate bool
}

// Groups returns the number of finalized groups.
func (r *Result) Groups() int { return len(r.Partitions) }

// NewEngine creates a partitioning engine.
func NewEngine(config *Config, catalog *hierarchy.Catalog, logger *logrus.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if catalog == nil {
		catalog = hierarchy.NewCatalog()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{config: config, catalog: catalog, logger: logger}
}

// UseMetrics attaches Prometheus metrics to the engine.
func (e *Engine) UseMetrics(m *Metrics) { e.metrics = m }

// Anonymize runs the full pipeline: validate configuration and coverage,
// recursively partition, and build the anonymized view. The algorithm is
// deterministic; repeated runs on identical input produce identical output.
func (e *Engine) Anonymize(ctx context.Context, dataset *models.Dataset) (*Result, error) {
	if err := e.validate(dataset); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"records":           dataset.Len(),
		"k":                 e.config.K,
		"quasi_identifiers": len(dataset.Schema.QuasiIdentifiers),
	}).Info("Starting anonymization")

	global := e.globalRanges(dataset)

	run := &engineRun{
		engine:    e,
		dataset:   dataset,
		evaluator: newWidthEvaluator(dataset.Schema, e.catalog, global),
		splitter:  newSplitter(dataset, e.catalog),
	}

	root := &Partition{
		members: allIndices(dataset.Len()),
		ranges:  newRangeSet(global),
	}

	if err := run.partition(ctx, root); err != nil {
		return nil, err
	}

	result := buildView(dataset, e.catalog, run.finalized)

	if dataset.Len() < e.config.K {
		result.Degenerate = true
		e.logger.WithFields(logrus.Fields{
			"records": dataset.Len(),
			"k":       e.config.K,
		}).Warn("Dataset smaller than k: the single output group violates k-anonymity")
	}

	e.logger.WithFields(logrus.Fields{
		"groups":  result.Groups(),
		"records": len(result.Records),
	}).Info("Anonymization complete")

	return result, nil
}

// engineRun carries the per-run state of one recursion.
type engineRun struct {
	engine    *Engine
	dataset   *models.Dataset
	evaluator *widthEvaluator
	splitter  *splitter
	finalized []*Partition
}

// partition applies the cut-or-finalize step to one active partition and
// recurses into the children of an accepted split.
func (r *engineRun) partition(ctx context.Context, p *Partition) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	k := r.engine.config.K

	// Base case: too small to split into two compliant halves. A partition
	// between k and 2k-1 members is finalized as-is.
	if p.Len() < 2*k {
		r.finalize(p)
		return nil
	}

	widths := r.evaluator.widths(p)
	for _, qi := range r.dataset.Schema.QuasiIdentifiers {
		if widths[qi.Name] == 0 && p.Allowed(qi.Name) {
			p.cuts = p.cuts.disallow(qi.Name)
			r.countDisallowed()
		}
	}

	for _, dim := range r.evaluator.rank(p, widths) {
		children := r.splitter.split(p, dim)
		if acceptable(children, k) {
			if r.engine.metrics != nil {
				r.engine.metrics.SplitsAccepted.Inc()
			}
			for _, child := range children {
				if err := r.partition(ctx, child); err != nil {
					return err
				}
			}
			return nil
		}

		// The cut failed for this subtree only; subtrees already produced
		// elsewhere keep their own view of the dimension.
		p.cuts = p.cuts.disallow(dim)
		r.countDisallowed()
		if r.engine.metrics != nil {
			r.engine.metrics.SplitsRejected.Inc()
		}
	}

	r.finalize(p)
	return nil
}

func (r *engineRun) finalize(p *Partition) {
	r.finalized = append(r.finalized, p)
	if r.engine.metrics != nil {
		r.engine.metrics.PartitionsFinalized.Inc()
		r.engine.metrics.GroupSize.Observe(float64(p.Len()))
		r.engine.metrics.PartitionDepth.Observe(float64(p.Depth()))
	}
}

func (r *engineRun) countDisallowed() {
	if r.engine.metrics != nil {
		r.engine.metrics.DimensionsDisallowed.Inc()
	}
}

// acceptable reports whether a candidate split preserves k-anonymity: every
// child must keep at least k members. An empty child list never qualifies.
func acceptable(children []*Partition, k int) bool {
	if len(children) == 0 {
		return false
	}
	for _, c := range children {
		if c.Len() < k {
			return false
		}
	}
	return true
}

// validate fails fast on configuration defects before partitioning begins.
func (e *Engine) validate(dataset *models.Dataset) error {
	if e.config.K < 1 {
		return errors.WrapError(errors.ErrInvalidK,
			errors.ErrorTypeConfiguration, errors.CodeInvalidK,
			fmt.Sprintf("k=%d", e.config.K))
	}
	if dataset == nil || dataset.Schema == nil {
		return errors.WrapError(errors.ErrInvalidDataset,
			errors.ErrorTypeValidation, errors.CodeInvalidInput, "dataset or schema is nil")
	}
	if dataset.Len() == 0 {
		return errors.WrapError(errors.ErrEmptyDataset,
			errors.ErrorTypeValidation, errors.CodeInvalidInput, "nothing to anonymize")
	}
	if err := dataset.Schema.Validate(); err != nil {
		return errors.WrapError(err,
			errors.ErrorTypeConfiguration, errors.CodeInvalidSchema, err.Error())
	}

	for _, qi := range dataset.Schema.QuasiIdentifiers {
		switch qi.Kind {
		case models.AttributeCategorical:
			tree, ok := e.catalog.Tree(qi.Name)
			if !ok {
				return errors.WrapError(errors.ErrMissingHierarchy,
					errors.ErrorTypeConfiguration, errors.CodeMissingHierarchy,
					fmt.Sprintf("attribute %q", qi.Name))
			}
			// Every observed raw value must map to exactly one leaf;
			// failing lazily during filtering would drop records silently.
			for _, rec := range dataset.Records {
				value := rec.Values[qi.Name]
				if _, found := tree.LeafFor(value); !found {
					return errors.WrapError(errors.ErrUncoveredValue,
						errors.ErrorTypeConfiguration, errors.CodeUncoveredValue,
						fmt.Sprintf("attribute %q value %q", qi.Name, value)).
						WithContext("original_id", rec.OriginalID)
				}
			}
		case models.AttributeNumeric:
			for _, rec := range dataset.Records {
				if _, ok := rec.Numbers[qi.Name]; !ok {
					return errors.WrapError(errors.ErrInvalidNumeric,
						errors.ErrorTypeValidation, errors.CodeInvalidNumeric,
						fmt.Sprintf("attribute %q", qi.Name)).
						WithContext("original_id", rec.OriginalID)
				}
			}
		}
	}
	return nil
}

// globalRanges computes the whole-dataset range per dimension: the hierarchy
// root for categorical attributes, [min, max+1) for numeric ones. Numeric
// bounds are computed once here and reused for every width normalization.
func (e *Engine) globalRanges(dataset *models.Dataset) map[string]DimensionRange {
	global := make(map[string]DimensionRange, len(dataset.Schema.QuasiIdentifiers))
	for _, qi := range dataset.Schema.QuasiIdentifiers {
		if qi.Kind == models.AttributeCategorical {
			global[qi.Name] = DimensionRange{
				Kind: models.AttributeCategorical,
				Node: hierarchy.Root,
			}
			continue
		}

		low, high := dataset.Records[0].Numbers[qi.Name], dataset.Records[0].Numbers[qi.Name]
		for _, rec := range dataset.Records[1:] {
			v := rec.Numbers[qi.Name]
			if v < low {
				low = v
			}
			if v > high {
				high = v
			}
		}
		global[qi.Name] = DimensionRange{
			Kind: models.AttributeNumeric,
			Low:  low,
			High: high + 1,
		}
	}
	return global
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
