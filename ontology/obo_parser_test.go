package ontology

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, name string, opts ...ParseOption) *Ontology {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	require.NoError(t, err)
	defer f.Close()

	ont, err := Parse(f, DetectFormat(name), opts...)
	require.NoError(t, err)
	return ont
}

func termByID(ont *Ontology, id string) *Term {
	for i := range ont.Terms {
		if ont.Terms[i].ID == id {
			return &ont.Terms[i]
		}
	}
	return nil
}

func TestParseOBO_Header(t *testing.T) {
	ont := parseFixture(t, "mini.obo")

	assert.Equal(t, "1.2", ont.Header["format-version"])
	assert.Equal(t, "hp/releases/2024-01-01", ont.Header["data-version"])
	assert.Equal(t, "hp", ont.Header["ontology"])
}

func TestParseOBO_TermsInFileOrder(t *testing.T) {
	ont := parseFixture(t, "mini.obo")

	ids := make([]string, 0, len(ont.Terms))
	for _, term := range ont.Terms {
		ids = append(ids, term.ID)
	}
	assert.Equal(t, []string{"HP:0000001", "HP:0000118", "HP:0001250"}, ids)
}

func TestParseOBO_StripsCommentsAndModifiers(t *testing.T) {
	ont := parseFixture(t, "mini.obo")
	seizure := termByID(ont, "HP:0001250")
	require.NotNil(t, seizure)

	assert.Equal(t, []string{"HP:0000118", "UBERON:0000955"}, seizure.Attrs["is_a"])
	assert.Equal(t, []string{"part_of HP:0000118"}, seizure.Attrs["relationship"])
	assert.Contains(t, seizure.Attrs["xref"], "Fyler:4040")
	assert.Contains(t, seizure.Attrs["synonym"], `"Fits" BROAD []`)
	assert.Equal(t, `"Epileptic seizure" RELATED [ORCID:0000-0001-5208-3432]`, seizure.Attrs["synonym"][0])
}

func TestParseOBO_KeepsRepeatedValues(t *testing.T) {
	ont := parseFixture(t, "mini.obo")
	seizure := termByID(ont, "HP:0001250")
	require.NotNil(t, seizure)

	count := 0
	for _, x := range seizure.Attrs["xref"] {
		if x == "UMLS:C0036572" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestParseOBO_Singletons(t *testing.T) {
	ont := parseFixture(t, "mini.obo")
	pa := termByID(ont, "HP:0000118")
	require.NotNil(t, pa)

	assert.Equal(t, "Phenotypic abnormality", pa.Get("name"))
	assert.Equal(t, `"A phenotypic abnormality." [HPO:probinson]`, pa.Get("def"))
	assert.Equal(t, "peter", pa.Get("created_by"))
	assert.Equal(t, "2008-02-27T02:20:00Z", pa.Get("creation_date"))
	assert.True(t, IsSingleton("name"))
	assert.False(t, IsSingleton("xref"))
}

func TestParseOBO_SkipsObsoleteByDefault(t *testing.T) {
	ont := parseFixture(t, "mini.obo")
	assert.Nil(t, termByID(ont, "HP:0000002"))

	ont = parseFixture(t, "mini.obo", WithObsolete(true))
	obsolete := termByID(ont, "HP:0000002")
	require.NotNil(t, obsolete)
	assert.True(t, obsolete.IsObsolete())
}

func TestParseOBO_TypeDefs(t *testing.T) {
	ont := parseFixture(t, "mini.obo")

	require.Len(t, ont.TypeDefs, 1)
	assert.Equal(t, TypeDef{ID: "part_of", Name: "part of", IsTransitive: true}, ont.TypeDefs[0])
}

func TestParseOBO_StanzaWithoutBlankLine(t *testing.T) {
	input := "[Term]\nid: HP:1\nname: one\n[Term]\nid: HP:2\nis_a: HP:1\n"

	ont, err := ParseOBO(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, ont.Terms, 2)
	assert.Equal(t, []string{"HP:1"}, ont.Terms[1].Attrs["is_a"])
}

func TestCleanValue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "HP:0000118", "HP:0000118"},
		{"comment", "HP:0000118 ! Phenotypic abnormality", "HP:0000118"},
		{"modifier", `UMLS:C1 {source="MONDO"}`, "UMLS:C1"},
		{"modifier and comment", `UMLS:C1 {source="x"} ! note`, "UMLS:C1"},
		{"bang inside quotes", `"Wow! so" EXACT []`, `"Wow! so" EXACT []`},
		{"brace inside quotes", `"a {b}" EXACT []`, `"a {b}" EXACT []`},
		{"bang without space", "http://x.org/a!b", "http://x.org/a!b"},
		{"escaped quote", `"say \"hi\" ! there" EXACT []`, `"say \"hi\" ! there" EXACT []`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanValue(tt.in))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatOBO, DetectFormat("https://example.org/hp.obo"))
	assert.Equal(t, FormatOBO, DetectFormat("hp.obo.gz"))
	assert.Equal(t, FormatOWL, DetectFormat("/data/hp.owl"))
	assert.Equal(t, FormatOWL, DetectFormat("/data/HP.OWL.GZ"))
	assert.Equal(t, FormatOBO, DetectFormat("hp"))
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse(strings.NewReader(""), "ttl")
	assert.Error(t, err)
}
