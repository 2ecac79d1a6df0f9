package enricher

import (
	"context"
	"log/slog"
	"time"

	"github.com/nodeadmin/hpo-parser/errs"
	"github.com/nodeadmin/hpo-parser/hierarchy"
	"github.com/nodeadmin/hpo-parser/ontology"
	"github.com/nodeadmin/hpo-parser/source"
)

// SourceProvider fetches, parses and builds the graph on every call.
type SourceProvider struct {
	Location          string
	Format            string // "" detects from Location
	KeepObsolete      bool
	RelationshipEdges bool
	Timeout           time.Duration
	Logger            *slog.Logger
}

var _ GraphProvider = (*SourceProvider)(nil)

// Graph implements GraphProvider. Every failure is reported as a
// SourceUnavailableError.
func (p *SourceProvider) Graph(ctx context.Context) (*hierarchy.Graph, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	location := p.Location
	if location == "" {
		location = source.DefaultURL
	}
	format := p.Format
	if format == "" {
		format = ontology.DetectFormat(location)
	}

	logger.Info("fetching ontology", "location", location, "format", format)
	rc, err := source.Open(ctx, location, source.WithTimeout(p.Timeout))
	if err != nil {
		return nil, &errs.SourceUnavailableError{Location: location, Err: err}
	}
	defer rc.Close()

	ont, err := ontology.Parse(rc, format, ontology.WithObsolete(p.KeepObsolete))
	if err != nil {
		return nil, &errs.SourceUnavailableError{Location: location, Err: err}
	}
	logger.Debug("ontology parsed",
		"terms", len(ont.Terms), "typedefs", len(ont.TypeDefs),
		"data_version", ont.Header["data-version"])

	return hierarchy.Build(ont, hierarchy.WithRelationshipEdges(p.RelationshipEdges)), nil
}
