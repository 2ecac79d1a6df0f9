package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/nodeadmin/hpo-parser/config"
)

var inspectFlags sourceFlags

var inspectCmd = &cobra.Command{
	Use:   "inspect <term-id>",
	Short: "Print the enriched document for one term",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectFlags.register(inspectCmd.Flags())
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(func(c *config.Config) {
		inspectFlags.apply(cmd, c)
	})
	if err != nil {
		return err
	}

	p, err := newPipeline(cmd, cfg)
	if err != nil {
		return err
	}

	g, err := p.provider.Graph(cmd.Context())
	if err != nil {
		return err
	}
	rec, err := p.enricher.Enrich(g, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
