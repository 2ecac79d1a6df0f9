package enricher

import (
	"regexp"
	"slices"
	"strings"

	"github.com/nodeadmin/hpo-parser/errs"
	"github.com/nodeadmin/hpo-parser/metrics"
)

// verbatimPrefixes keep their lower-cased prefix as key and store only
// the local identifier.
var verbatimPrefixes = map[string]bool{
	"umls":        true,
	"snomedct_us": true,
	"snomed_ct":   true,
	"cohd":        true,
	"ncit":        true,
}

var quotedText = regexp.MustCompile(`"(.+?)"`)

// filterNamespace keeps ids starting with ns, preserving order. The
// result is never nil.
func filterNamespace(ids []string, ns string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.HasPrefix(id, ns) {
			out = append(out, id)
		}
	}
	return out
}

func sortedNamespace(ids []string, ns string) []string {
	out := filterNamespace(ids, ns)
	slices.Sort(out)
	return out
}

// normalizeXrefs groups cross-references by vocabulary. URLs and values
// without a prefix are dropped. Each list is deduplicated and sorted.
func normalizeXrefs(vals []string, m *metrics.Recorder) map[string][]string {
	sets := make(map[string]map[string]struct{}, len(vals))
	add := func(key, val string) {
		if sets[key] == nil {
			sets[key] = make(map[string]struct{}, 2)
		}
		sets[key][val] = struct{}{}
	}

	for _, val := range vals {
		prefix, local, ok := strings.Cut(val, ":")
		if !ok {
			m.XrefDropped("no_prefix")
			continue
		}
		lower := strings.ToLower(prefix)
		switch {
		case prefix == "http" || prefix == "https":
			m.XrefDropped("url")
		case verbatimPrefixes[lower]:
			add(lower, local)
		case prefix == "MSH":
			add("mesh", local)
		default:
			add(lower, val)
		}
	}

	out := make(map[string][]string, len(sets))
	for key, set := range sets {
		list := make([]string, 0, len(set))
		for v := range set {
			list = append(list, v)
		}
		slices.Sort(list)
		out[key] = list
	}
	return out
}

// extractSynonyms classifies raw synonym values by the first scope
// keyword they contain and collects every quoted text.
func extractSynonyms(vals []string) Synonyms {
	var syn Synonyms
	for _, val := range vals {
		var dst *[]string
		switch {
		case strings.Contains(val, "EXACT"):
			dst = &syn.Exact
		case strings.Contains(val, "RELATED"):
			dst = &syn.Related
		case strings.Contains(val, "BROAD"):
			dst = &syn.Broad
		default:
			continue
		}
		for _, m := range quotedText.FindAllStringSubmatch(val, -1) {
			*dst = append(*dst, m[1])
		}
	}
	return syn
}

// parseRelationships turns "<predicate> <target>" values into
// predicate -> {lower(prefix): target}. Values that are not exactly two
// space-separated tokens are rejected.
func parseRelationships(termID string, vals []string) (map[string]map[string]string, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	out := make(map[string]map[string]string, len(vals))
	for _, val := range vals {
		parts := strings.Split(val, " ")
		if len(parts) != 2 {
			return nil, &errs.MalformedRelationshipError{TermID: termID, Value: val}
		}
		predicate, target := parts[0], parts[1]
		prefix, _, _ := strings.Cut(target, ":")
		out[predicate] = map[string]string{strings.ToLower(prefix): target}
	}
	return out, nil
}
