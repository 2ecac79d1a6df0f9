package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nodeadmin/hpo-parser/annotation"
	"github.com/nodeadmin/hpo-parser/config"
	"github.com/nodeadmin/hpo-parser/enricher"
	"github.com/nodeadmin/hpo-parser/logging"
	"github.com/nodeadmin/hpo-parser/metrics"
)

// sourceFlags are the input settings shared by export and inspect.
type sourceFlags struct {
	dataDir           string
	ontology          string
	ontologyFormat    string
	namespace         string
	keepObsolete      bool
	relationshipEdges bool
	fetchTimeout      time.Duration
}

func (f *sourceFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.dataDir, "data-dir", "d", "", "directory containing phenotype_to_genes.txt")
	fs.StringVar(&f.ontology, "ontology", "", "ontology URL or path (default HPO hp.obo)")
	fs.StringVar(&f.ontologyFormat, "ontology-format", "", "ontology format: obo or owl (default from extension)")
	fs.StringVar(&f.namespace, "namespace", "", "identifier prefix kept in hierarchy fields (default HP:)")
	fs.BoolVar(&f.keepObsolete, "keep-obsolete", false, "include obsolete terms")
	fs.BoolVar(&f.relationshipEdges, "relationship-edges", false, "add relationship tags as hierarchy edges")
	fs.DurationVar(&f.fetchTimeout, "fetch-timeout", 0, "timeout for fetching a remote ontology")
}

// apply overlays explicitly set flags on cfg.
func (f *sourceFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if changed("ontology") {
		cfg.OntologyURL = f.ontology
	}
	if changed("ontology-format") {
		cfg.OntologyFormat = f.ontologyFormat
	}
	if changed("namespace") {
		cfg.Namespace = f.namespace
	}
	if changed("keep-obsolete") {
		cfg.KeepObsolete = f.keepObsolete
	}
	if changed("relationship-edges") {
		cfg.RelationshipEdges = f.relationshipEdges
	}
	if changed("fetch-timeout") {
		cfg.FetchTimeout.Duration = f.fetchTimeout
	}
}

// loadConfig reads --config, lets overlay apply flags and validates.
func loadConfig(overlay func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	overlay(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// pipeline holds everything a command needs to produce records.
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Recorder
	provider *enricher.SourceProvider
	enricher *enricher.Enricher
}

// newPipeline loads the annotation index and wires the enricher. The
// ontology itself is fetched lazily by the provider.
func newPipeline(cmd *cobra.Command, cfg *config.Config) (*pipeline, error) {
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format, verbose)
	if err != nil {
		return nil, err
	}
	rec := metrics.New()

	start := time.Now()
	idx, err := annotation.Load(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("loading annotations: %w", err)
	}
	rec.AddAnnotations(idx.Count())
	rec.ObserveStage("annotations", start)

	provider := &enricher.SourceProvider{
		Location:          cfg.OntologyURL,
		Format:            cfg.OntologyFormat,
		KeepObsolete:      cfg.KeepObsolete,
		RelationshipEdges: cfg.RelationshipEdges,
		Timeout:           cfg.FetchTimeout.Duration,
		Logger:            logger,
	}

	return &pipeline{
		cfg:      cfg,
		logger:   logger,
		metrics:  rec,
		provider: provider,
		enricher: enricher.New(provider, idx,
			enricher.WithNamespace(cfg.Namespace),
			enricher.WithMetrics(rec),
			enricher.WithLogger(logger),
		),
	}, nil
}
