// Package annotation loads the HPO phenotype_to_genes.txt table into an
// in-memory index keyed by phenotype term identifier.
package annotation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nodeadmin/hpo-parser/errs"
)

// FileName is the annotation table expected inside the data directory.
const FileName = "phenotype_to_genes.txt"

// Column positions in phenotype_to_genes.txt.
const (
	colTermID     = 0
	colGeneID     = 2
	colGeneSymbol = 3
	colSourceInfo = 4
	colSource     = 5
	colDiseaseID  = 6

	minFields = 7
)

const scannerBufferSize = 1 << 20 // 1 MB

// Gene identifies the gene side of an association.
type Gene struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

// Record is one gene-phenotype-disease association.
type Record struct {
	Gene       Gene   `json:"gene"`
	Source     string `json:"source"`
	DiseaseID  string `json:"disease_id"`
	SourceInfo string `json:"source_info,omitempty"`
}

// Index maps phenotype term IDs to their associations in file order.
type Index map[string][]Record

// Lookup returns a copy of the records for id, or nil.
func (idx Index) Lookup(id string) []Record {
	recs := idx[id]
	if len(recs) == 0 {
		return nil
	}
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// Count returns the total number of records across all keys.
func (idx Index) Count() int {
	n := 0
	for _, recs := range idx {
		n += len(recs)
	}
	return n
}

// Load reads <dataDir>/phenotype_to_genes.txt.
func Load(dataDir string, logger *slog.Logger) (Index, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	path := filepath.Join(dataDir, FileName)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &errs.MissingInputError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("opening annotations: %w", err)
	}
	defer f.Close()

	idx, err := parse(f, path)
	if err != nil {
		return nil, err
	}

	logger.Debug("annotations loaded", "path", path, "terms", len(idx), "records", idx.Count())
	return idx, nil
}

// Parse reads an annotation table from r. The first line is a header.
func Parse(r io.Reader) (Index, error) {
	return parse(r, "")
}

func parse(r io.Reader, path string) (Index, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	idx := make(Index, 1024)
	lineNo := 0

	// First line is just a header
	if scanner.Scan() {
		lineNo++
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < minFields {
			return nil, &errs.MalformedLineError{Path: path, Line: lineNo, Fields: len(fields), Want: minFields}
		}

		rec := Record{
			Gene: Gene{
				ID:     fields[colGeneID],
				Symbol: fields[colGeneSymbol],
			},
			Source:    fields[colSource],
			DiseaseID: fields[colDiseaseID],
		}
		if info := fields[colSourceInfo]; info != "" && info != "-" {
			rec.SourceInfo = info
		}

		id := fields[colTermID]
		idx[id] = append(idx[id], rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading annotations: %w", err)
	}
	return idx, nil
}
