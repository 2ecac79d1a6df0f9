// Package enricher turns ontology graph nodes into enriched phenotype
// records: namespace-filtered hierarchy fields, normalised xrefs and
// synonyms, relationship fields and gene/disease annotations.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/nodeadmin/hpo-parser/annotation"
	"github.com/nodeadmin/hpo-parser/errs"
	"github.com/nodeadmin/hpo-parser/hierarchy"
	"github.com/nodeadmin/hpo-parser/metrics"
)

// DefaultNamespace is the identifier prefix of HPO terms.
const DefaultNamespace = "HP:"

// GraphProvider supplies the ontology graph. It is invoked once per
// Records call.
type GraphProvider interface {
	Graph(ctx context.Context) (*hierarchy.Graph, error)
}

// GraphFunc adapts a function to GraphProvider.
type GraphFunc func(ctx context.Context) (*hierarchy.Graph, error)

func (f GraphFunc) Graph(ctx context.Context) (*hierarchy.Graph, error) { return f(ctx) }

// Enricher merges graph nodes with annotations.
type Enricher struct {
	provider    GraphProvider
	annotations annotation.Index
	namespace   string
	metrics     *metrics.Recorder
	logger      *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithNamespace sets the prefix used to filter hierarchy fields.
func WithNamespace(ns string) Option {
	return func(e *Enricher) { e.namespace = ns }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Enricher) { e.metrics = m }
}

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enricher) { e.logger = l }
}

// New creates an Enricher. The annotation index is only read.
func New(provider GraphProvider, annotations annotation.Index, opts ...Option) *Enricher {
	e := &Enricher{
		provider:    provider,
		annotations: annotations,
		namespace:   DefaultNamespace,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Records fetches the graph and yields one record per node in graph
// order. The first error ends the sequence. Each call fetches the graph
// again.
func (e *Enricher) Records(ctx context.Context) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		start := time.Now()
		g, err := e.provider.Graph(ctx)
		if err != nil {
			var srcErr *errs.SourceUnavailableError
			if !errors.As(err, &srcErr) {
				err = &errs.SourceUnavailableError{Location: "graph provider", Err: err}
			}
			yield(nil, err)
			return
		}
		e.metrics.ObserveStage("graph", start)

		stats := g.Stats()
		e.logger.Info("ontology graph ready",
			"nodes", stats.Nodes, "declared", stats.Declared, "edges", stats.Edges,
			"roots", stats.Roots, "elapsed", time.Since(start))

		start = time.Now()
		defer e.metrics.ObserveStage("enrich", start)

		emitted := 0
		for _, id := range g.Nodes() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			rec, err := e.Enrich(g, id)
			if err != nil {
				yield(nil, err)
				return
			}
			e.metrics.TermEmitted(rec.Annotations != nil)
			emitted++
			if !yield(rec, nil) {
				return
			}
		}
		e.logger.Debug("enrichment complete", "records", emitted, "elapsed", time.Since(start))
	}
}

// Enrich builds the record for a single node of g.
func (e *Enricher) Enrich(g *hierarchy.Graph, id string) (*Record, error) {
	if !g.Has(id) {
		return nil, fmt.Errorf("term %s: %w", id, errs.ErrNotFound)
	}
	attrs := g.Attrs(id)

	rec := &Record{
		ID:         id,
		HP:         id,
		Attributes: passthrough(attrs),
	}

	if isA := attrs["is_a"]; len(isA) > 0 {
		rec.Parents = filterNamespace(isA, e.namespace)
	}
	if xrefs := attrs["xref"]; len(xrefs) > 0 {
		rec.Xrefs = normalizeXrefs(xrefs, e.metrics)
	}

	rec.Children = sortedNamespace(g.Predecessors(id), e.namespace)
	// Edges point at parents, so the graph's descendants are the term's
	// ancestors and vice versa.
	rec.Ancestors = sortedNamespace(g.Descendants(id), e.namespace)
	rec.Descendants = sortedNamespace(g.Ancestors(id), e.namespace)

	rec.Synonym = extractSynonyms(attrs["synonym"])

	rels, err := parseRelationships(id, attrs["relationship"])
	if err != nil {
		return nil, err
	}
	rec.Relationships = rels

	rec.Annotations = e.annotations.Lookup(id)
	return rec, nil
}
