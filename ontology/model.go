package ontology

// Ontology represents a parsed OBO ontology as raw stanzas.
type Ontology struct {
	Header   map[string]string
	Terms    []Term
	TypeDefs []TypeDef
}

// TypeDef represents an OBO Typedef stanza (object property).
type TypeDef struct {
	ID           string
	Name         string
	IsTransitive bool
}

// Term is a single [Term] stanza. Attrs holds every tag except id, with
// values in file order and trailing comments and modifiers removed.
type Term struct {
	ID    string
	Attrs map[string][]string
}

// singletonTags are tags that carry one value per stanza and are exposed
// as plain strings rather than lists.
var singletonTags = map[string]bool{
	"name":          true,
	"def":           true,
	"comment":       true,
	"namespace":     true,
	"is_obsolete":   true,
	"created_by":    true,
	"creation_date": true,
}

// IsSingleton reports whether tag is single-valued.
func IsSingleton(tag string) bool {
	return singletonTags[tag]
}

// Get returns the first value of tag, or "".
func (t *Term) Get(tag string) string {
	if vals := t.Attrs[tag]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// IsObsolete reports whether the term is marked obsolete.
func (t *Term) IsObsolete() bool {
	return t.Get("is_obsolete") == "true"
}

func (t *Term) add(tag, val string) {
	if t.Attrs == nil {
		t.Attrs = make(map[string][]string, 8)
	}
	if singletonTags[tag] {
		t.Attrs[tag] = []string{val}
		return
	}
	t.Attrs[tag] = append(t.Attrs[tag], val)
}
