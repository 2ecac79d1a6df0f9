package ontology

import (
	"fmt"
	"io"
	"path"
	"strings"
)

// Supported input formats.
const (
	FormatOBO = "obo"
	FormatOWL = "owl"
)

// DetectFormat guesses the serialization from a path or URL. A trailing
// .gz is ignored. Anything unrecognised is treated as OBO.
func DetectFormat(location string) string {
	location = strings.TrimSuffix(strings.ToLower(location), ".gz")
	switch path.Ext(location) {
	case ".owl", ".xml", ".rdf":
		return FormatOWL
	}
	return FormatOBO
}

// Parse dispatches to ParseOBO or ParseOWL.
func Parse(r io.Reader, format string, opts ...ParseOption) (*Ontology, error) {
	switch format {
	case FormatOBO, "":
		return ParseOBO(r, opts...)
	case FormatOWL:
		return ParseOWL(r, opts...)
	}
	return nil, fmt.Errorf("unsupported ontology format %q", format)
}
