package ontology

import (
	"encoding/xml"
	"io"
	"strings"
)

// OWL/RDF namespace URIs
const (
	nsOWL      = "http://www.w3.org/2002/07/owl#"
	nsRDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS     = "http://www.w3.org/2000/01/rdf-schema#"
	nsOBO      = "http://purl.obolibrary.org/obo/"
	nsOBOInOwl = "http://www.geneontology.org/formats/oboInOwl#"
)

// synonymScopes maps oboInOwl synonym properties to OBO scope keywords.
var synonymScopes = map[string]string{
	"hasExactSynonym":   "EXACT",
	"hasRelatedSynonym": "RELATED",
	"hasBroadSynonym":   "BROAD",
	"hasNarrowSynonym":  "NARROW",
}

// ParseOWL parses an OWL/RDF-XML release of an OBO ontology (such as
// hp.owl) into the same stanza shape ParseOBO produces.
func ParseOWL(r io.Reader, opts ...ParseOption) (*Ontology, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	decoder := xml.NewDecoder(r)
	pool := newInternPool()

	ont := &Ontology{
		Header: make(map[string]string, 4),
		Terms:  make([]Term, 0, initialTermCapacity),
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case matchElement(se, nsOWL, "Class"):
			term := parseOWLClass(decoder, se, pool)
			if term.ID == "" || (!cfg.keepObsolete && term.IsObsolete()) {
				continue
			}
			ont.Terms = append(ont.Terms, term)
		case matchElement(se, nsOWL, "Ontology"):
			parseOWLOntologyHeader(decoder, se, ont)
		case matchElement(se, nsOWL, "ObjectProperty"):
			td := parseOWLObjectProperty(decoder, se)
			if td.ID != "" {
				ont.TypeDefs = append(ont.TypeDefs, td)
			}
		case matchElement(se, nsRDF, "RDF"):
			// Container element: descend into it, do not skip
		default:
			if err := decoder.Skip(); err != nil {
				return nil, err
			}
		}
	}

	return ont, nil
}

func matchElement(se xml.StartElement, ns, local string) bool {
	return se.Name.Space == ns && se.Name.Local == local
}

func getAttr(se xml.StartElement, ns, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == ns && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func oboIDFromURI(uri string) string {
	// Convert http://purl.obolibrary.org/obo/HP_0000118 to HP:0000118
	if strings.HasPrefix(uri, nsOBO) {
		id := uri[len(nsOBO):]
		if idx := strings.IndexByte(id, '_'); idx >= 0 {
			return id[:idx] + ":" + id[idx+1:]
		}
		return id
	}
	return uri
}

func parseOWLOntologyHeader(decoder *xml.Decoder, se xml.StartElement, ont *Ontology) {
	if about := getAttr(se, nsRDF, "about"); about != "" {
		ont.Header["ontology"] = about
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "versionIRI" {
				if v := getAttr(t, nsRDF, "resource"); v != "" {
					ont.Header["data-version"] = v
				}
			}
			_ = decoder.Skip()
		case xml.EndElement:
			return
		}
	}
}

// quoteOBO renders text as an OBO quoted string followed by an empty
// dbxref list, e.g. "Abnormal gait" [].
func quoteOBO(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `\"`) + `" []`
}

func parseOWLClass(decoder *xml.Decoder, se xml.StartElement, pool *internPool) Term {
	var t Term

	if about := getAttr(se, nsRDF, "about"); about != "" {
		t.ID = oboIDFromURI(about)
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			return t
		}

		switch el := tok.(type) {
		case xml.StartElement:
			local := el.Name.Local
			switch {
			case matchElement(el, nsRDFS, "label"):
				t.add("name", readCharData(decoder))
			case matchElement(el, nsRDFS, "comment"):
				t.add("comment", readCharData(decoder))
			case matchElement(el, nsRDFS, "subClassOf"):
				if res := getAttr(el, nsRDF, "resource"); res != "" {
					t.add("is_a", pool.get(oboIDFromURI(res)))
					_ = decoder.Skip()
				} else if prop, target := parseOWLRestriction(decoder); prop != "" && target != "" {
					t.add("relationship", pool.get(prop)+" "+target)
				}
			case local == "deprecated":
				t.add("is_obsolete", readCharData(decoder))
			case local == "hasAlternativeId":
				t.add("alt_id", readCharData(decoder))
			case local == "IAO_0000115" || local == "definition":
				t.add("def", quoteOBO(readCharData(decoder)))
			case synonymScopes[local] != "":
				scope := synonymScopes[local]
				text := readCharData(decoder)
				t.add("synonym", strings.TrimSuffix(quoteOBO(text), " []")+" "+scope+" []")
			case local == "hasDbXref" || local == "hasDbXRef":
				t.add("xref", readCharData(decoder))
			case local == "inSubset":
				if res := getAttr(el, nsRDF, "resource"); res != "" {
					t.add("subset", pool.get(oboIDFromURI(res)))
				}
				_ = decoder.Skip()
			case local == "created_by" || local == "creator":
				t.add("created_by", readCharData(decoder))
			case local == "creation_date" || local == "date":
				t.add("creation_date", readCharData(decoder))
			case local == "id" && el.Name.Space == nsOBOInOwl:
				// Redundant with rdf:about.
				_ = decoder.Skip()
			default:
				if val := readCharData(decoder); val != "" {
					t.add("property_value", local+" "+val)
				}
			}
		case xml.EndElement:
			// End of owl:Class
			return t
		}
	}
}

// parseOWLRestriction parses an owl:Restriction nested in rdfs:subClassOf
// and returns its onProperty and someValuesFrom as OBO ids.
func parseOWLRestriction(decoder *xml.Decoder) (prop, target string) {
	depth := 0
	for {
		tok, err := decoder.Token()
		if err != nil {
			return prop, target
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case matchElement(el, nsOWL, "onProperty"):
				if res := getAttr(el, nsRDF, "resource"); res != "" {
					prop = oboIDFromURI(res)
				}
				_ = decoder.Skip()
				depth--
			case matchElement(el, nsOWL, "someValuesFrom"):
				if res := getAttr(el, nsRDF, "resource"); res != "" {
					target = oboIDFromURI(res)
				}
				_ = decoder.Skip()
				depth--
			case matchElement(el, nsOWL, "Restriction"):
				// descend
			default:
				_ = decoder.Skip()
				depth--
			}
		case xml.EndElement:
			depth--
			if depth < 0 {
				return prop, target
			}
		}
	}
}

// parseOWLObjectProperty parses an owl:ObjectProperty element.
func parseOWLObjectProperty(decoder *xml.Decoder, se xml.StartElement) TypeDef {
	var td TypeDef
	if about := getAttr(se, nsRDF, "about"); about != "" {
		td.ID = oboIDFromURI(about)
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			return td
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case matchElement(el, nsRDF, "type"):
				if getAttr(el, nsRDF, "resource") == nsOWL+"TransitiveProperty" {
					td.IsTransitive = true
				}
				_ = decoder.Skip()
			case matchElement(el, nsRDFS, "label"):
				td.Name = readCharData(decoder)
			default:
				_ = decoder.Skip()
			}
		case xml.EndElement:
			return td
		}
	}
}

func readCharData(decoder *xml.Decoder) string {
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return sb.String()
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			// Nested element: recurse into it but still collect text
			if inner := readCharData(decoder); inner != "" {
				sb.WriteString(inner)
			}
		case xml.EndElement:
			return strings.TrimSpace(sb.String())
		}
	}
}
