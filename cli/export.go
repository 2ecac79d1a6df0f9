package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodeadmin/hpo-parser/config"
	"github.com/nodeadmin/hpo-parser/enricher"
	"github.com/nodeadmin/hpo-parser/sink"
)

var exportFlags struct {
	sourceFlags
	format          string
	output          string
	pretty          bool
	metricsTextfile string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export enriched phenotype terms",
	Long: `Loads phenotype_to_genes.txt from the data directory, fetches the
ontology and writes one enriched document per term.

Formats: jsonl (default), json, sqlite, badger. Stream formats write to
stdout unless --output is given; sqlite and badger require --output.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	fs := exportCmd.Flags()
	exportFlags.register(fs)
	fs.StringVarP(&exportFlags.format, "format", "f", "", "output format: jsonl, json, sqlite, badger")
	fs.StringVarP(&exportFlags.output, "output", "o", "", "output file, database file or directory (default stdout)")
	fs.BoolVar(&exportFlags.pretty, "pretty", false, "indent json output")
	fs.StringVar(&exportFlags.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadConfig(func(c *config.Config) {
		exportFlags.apply(cmd, c)
		changed := cmd.Flags().Changed
		if changed("format") {
			c.Output.Format = exportFlags.format
		}
		if changed("output") {
			c.Output.Path = exportFlags.output
		}
		if changed("pretty") {
			c.Output.Pretty = exportFlags.pretty
		}
		if changed("metrics-textfile") {
			c.MetricsTextfile = exportFlags.metricsTextfile
		}
	})
	if err != nil {
		return err
	}

	p, err := newPipeline(cmd, cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := sink.New(cfg.Output, cmd.OutOrStdout(), p.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()

	total, annotated, err := drain(cmd.Context(), p.enricher, out)
	if err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return fmt.Errorf("committing output: %w", err)
	}
	p.metrics.ObserveStage("export", start)

	if err := p.metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		p.logger.Warn("writing metrics textfile failed", "path", cfg.MetricsTextfile, "error", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d terms (%d annotated) as %s in %v\n",
		total, annotated, cfg.Output.Format, time.Since(start).Round(time.Millisecond))
	return nil
}

// drain writes every record to out and stops at the first error.
func drain(ctx context.Context, e *enricher.Enricher, out sink.Sink) (total, annotated int, err error) {
	for rec, err := range e.Records(ctx) {
		if err != nil {
			return total, annotated, err
		}
		if err := out.Write(ctx, rec); err != nil {
			return total, annotated, fmt.Errorf("writing %s: %w", rec.ID, err)
		}
		total++
		if rec.Annotations != nil {
			annotated++
		}
	}
	return total, annotated, nil
}
