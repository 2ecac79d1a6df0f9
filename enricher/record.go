package enricher

import (
	"bytes"
	"encoding/json"

	"github.com/nodeadmin/hpo-parser/annotation"
	"github.com/nodeadmin/hpo-parser/ontology"
)

// Synonyms groups synonym texts by scope. Empty scopes are omitted.
type Synonyms struct {
	Exact   []string `json:"exact,omitempty"`
	Related []string `json:"related,omitempty"`
	Broad   []string `json:"broad,omitempty"`
}

// Record is one enriched phenotype term. It is built fresh for every
// node and shares no memory with the graph or the annotation index.
type Record struct {
	ID string
	HP string

	// Parents is nil when the term has no is_a tag at all, which keeps
	// the key out of the document.
	Parents     []string
	Children    []string
	Ancestors   []string
	Descendants []string

	// Xrefs is nil when the term has no xref tag.
	Xrefs   map[string][]string
	Synonym Synonyms

	// Relationships maps predicate -> {lower(prefix): target}. Each
	// predicate becomes a top-level document field.
	Relationships map[string]map[string]string

	// Annotations is nil when the index has no entry for the term.
	Annotations []annotation.Record

	// Attributes carries the remaining raw tags (name, def, alt_id, ...).
	Attributes map[string]any
}

// consumedTags never pass through to the output document.
var consumedTags = map[string]bool{
	"is_a":          true,
	"xref":          true,
	"synonym":       true,
	"relationship":  true,
	"created_by":    true,
	"creation_date": true,
}

func passthrough(attrs map[string][]string) map[string]any {
	out := make(map[string]any, len(attrs))
	for tag, vals := range attrs {
		if consumedTags[tag] || len(vals) == 0 {
			continue
		}
		if ontology.IsSingleton(tag) {
			out[tag] = vals[0]
			continue
		}
		cp := make([]string, len(vals))
		copy(cp, vals)
		out[tag] = cp
	}
	return out
}

// Document flattens the record into its output shape. Keys are layered
// in a fixed order: raw attributes, computed fields, relationship fields,
// annotations. A later layer overwrites an earlier key of the same name.
func (r *Record) Document() map[string]any {
	doc := make(map[string]any, len(r.Attributes)+len(r.Relationships)+10)
	for k, v := range r.Attributes {
		doc[k] = v
	}

	doc["_id"] = r.ID
	doc["hp"] = r.HP
	if r.Parents != nil {
		doc["parents"] = r.Parents
	}
	if r.Xrefs != nil {
		doc["xrefs"] = r.Xrefs
	}
	doc["children"] = nonNil(r.Children)
	doc["ancestors"] = nonNil(r.Ancestors)
	doc["descendants"] = nonNil(r.Descendants)
	doc["synonym"] = r.Synonym

	for predicate, target := range r.Relationships {
		doc[predicate] = target
	}
	if r.Annotations != nil {
		doc["annotations"] = r.Annotations
	}
	return doc
}

// MarshalJSON encodes the flattened document without HTML escaping.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Document()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
