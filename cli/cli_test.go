package cli

import (
	"bufio"
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/nodeadmin/hpo-parser/annotation"
	"github.com/nodeadmin/hpo-parser/errs"
)

const annotations = "hpo_id\thpo_name\tncbi_gene_id\tgene_symbol\tfrequency\tdisease_id\n" +
	"HP:0001250\tSeizure\t6323\tSCN1A\t-\tmim2gene\tOMIM:607208\n" +
	"HP:0001250\tSeizure\t3736\tKCNA1\t-\torphadata\tORPHA:166\n" +
	"HP:0000118\tPhenotypic abnormality\t2260\tFGFR1\t-\tmim2gene\tOMIM:101600\n"

// fixture returns a data directory with phenotype_to_genes.txt and the
// absolute path of the test ontology.
func fixture(t *testing.T) (dataDir, obo string) {
	t.Helper()
	dataDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, annotation.FileName), []byte(annotations), 0o600))
	obo, err := filepath.Abs(filepath.Join("..", "ontology", "testdata", "mini.obo"))
	require.NoError(t, err)
	return dataDir, obo
}

// resetFlags restores every flag to its default so state does not leak
// between Execute calls on the shared command tree.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeLines(t *testing.T, s string) map[string]map[string]any {
	t.Helper()
	docs := make(map[string]map[string]any)
	scanner := bufio.NewScanner(strings.NewReader(s))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &doc), scanner.Text())
		docs[doc["_id"].(string)] = doc
	}
	return docs
}

func TestRootCmd_Commands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"export", "inspect", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestVersionCmd(t *testing.T) {
	original := version
	version = "1.2.3"
	defer func() { version = original }()

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hpo-parser version 1.2.3\n", out)
}

func TestExport_JSONLines(t *testing.T) {
	dataDir, obo := fixture(t)

	out, stderr, err := execute(t, "export", "--data-dir", dataDir, "--ontology", obo)
	require.NoError(t, err)

	docs := decodeLines(t, out)
	require.Len(t, docs, 4)
	assert.Contains(t, docs, "UBERON:0000955")
	assert.NotContains(t, docs, "HP:0000002", "obsolete terms are skipped")

	seizure := docs["HP:0001250"]
	assert.Equal(t, []any{"HP:0000001", "HP:0000118"}, seizure["ancestors"])
	assert.Equal(t, []any{"HP:0000118"}, seizure["parents"])
	assert.Len(t, seizure["annotations"], 2)

	root := docs["HP:0000001"]
	assert.NotContains(t, root, "annotations")
	assert.Equal(t, []any{"HP:0000118", "HP:0001250"}, root["descendants"])

	assert.Contains(t, stderr, "Exported 4 terms (2 annotated) as jsonl")
}

func TestExport_KeepObsolete(t *testing.T) {
	dataDir, obo := fixture(t)

	out, _, err := execute(t, "export", "-d", dataDir, "--ontology", obo, "--keep-obsolete")
	require.NoError(t, err)
	assert.Contains(t, decodeLines(t, out), "HP:0000002")
}

func TestExport_ConfigFileAndFlagPrecedence(t *testing.T) {
	dataDir, obo := fixture(t)
	outPath := filepath.Join(t.TempDir(), "hpo.json")
	metricsPath := filepath.Join(t.TempDir(), "hpo.prom")

	cfgPath := filepath.Join(t.TempDir(), "hpo.toml")
	cfgBody := "data_dir = " + strconv.Quote(dataDir) + "\n" +
		"ontology_url = " + strconv.Quote(obo) + "\n" +
		"metrics_textfile = " + strconv.Quote(metricsPath) + "\n" +
		"[output]\nformat = \"jsonl\"\npath = " + strconv.Quote(outPath) + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o600))

	_, stderr, err := execute(t, "--config", cfgPath, "export", "--format", "json", "--pretty")
	require.NoError(t, err)
	assert.Contains(t, stderr, "as json")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(data, &docs))
	assert.Len(t, docs, 4)
	assert.True(t, bytes.HasPrefix(data, []byte("[\n  {")))

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "hpo_terms_emitted_total 4")
	assert.Contains(t, string(prom), "hpo_annotations_loaded_total 3")
}

func TestExport_SQLite(t *testing.T) {
	dataDir, obo := fixture(t)
	dbPath := filepath.Join(t.TempDir(), "hpo.db")

	_, _, err := execute(t, "export", "-d", dataDir, "--ontology", obo, "-f", "sqlite", "-o", dbPath)
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var terms, genes int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM terms").Scan(&terms))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM term_annotations WHERE id = 'HP:0001250'").Scan(&genes))
	assert.Equal(t, 4, terms)
	assert.Equal(t, 2, genes)
}

func TestExport_Errors(t *testing.T) {
	dataDir, obo := fixture(t)

	t.Run("missing data dir", func(t *testing.T) {
		_, _, err := execute(t, "export", "--ontology", obo)
		assert.ErrorContains(t, err, "DataDir")
	})

	t.Run("missing annotation file", func(t *testing.T) {
		_, _, err := execute(t, "export", "-d", t.TempDir(), "--ontology", obo)
		var missing *errs.MissingInputError
		assert.True(t, errors.As(err, &missing), "got %v", err)
	})

	t.Run("unreachable ontology", func(t *testing.T) {
		_, _, err := execute(t, "export", "-d", dataDir, "--ontology", filepath.Join(t.TempDir(), "absent.obo"))
		var unavailable *errs.SourceUnavailableError
		assert.True(t, errors.As(err, &unavailable), "got %v", err)
	})

	t.Run("sqlite without output", func(t *testing.T) {
		_, _, err := execute(t, "export", "-d", dataDir, "--ontology", obo, "-f", "sqlite")
		assert.ErrorContains(t, err, "output.path is required")
	})

	t.Run("positional argument", func(t *testing.T) {
		_, _, err := execute(t, "export", "extra")
		assert.Error(t, err)
	})
}

func TestInspect(t *testing.T) {
	dataDir, obo := fixture(t)

	out, _, err := execute(t, "inspect", "HP:0001250", "-d", dataDir, "--ontology", obo)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{\n  \""))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "HP:0001250", doc["_id"])
	assert.Equal(t, "Seizure", doc["name"])
	assert.Equal(t, map[string]any{"hp": "HP:0000118"}, doc["part_of"])
}

func TestInspect_NotFound(t *testing.T) {
	dataDir, obo := fixture(t)

	_, _, err := execute(t, "inspect", "HP:9999999", "-d", dataDir, "--ontology", obo)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestInspect_RequiresOneArg(t *testing.T) {
	_, _, err := execute(t, "inspect")
	assert.Error(t, err)
}
