package ontology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOWL_Class(t *testing.T) {
	ont := parseFixture(t, "mini.owl")

	seizure := termByID(ont, "HP:0001250")
	require.NotNil(t, seizure)

	assert.Equal(t, "Seizure", seizure.Get("name"))
	assert.Equal(t, []string{"HP:0000118"}, seizure.Attrs["is_a"])
	assert.Equal(t, []string{"BFO:0000050 HP:0000118"}, seizure.Attrs["relationship"])
	assert.Equal(t, []string{"UMLS:C0036572"}, seizure.Attrs["xref"])
	assert.Equal(t, []string{`"Seizures" EXACT []`}, seizure.Attrs["synonym"])
	assert.Equal(t, `"A seizure is an intermittent abnormality." []`, seizure.Get("def"))
	assert.NotContains(t, seizure.Attrs, "id")
}

func TestParseOWL_HeaderAndTypeDefs(t *testing.T) {
	ont := parseFixture(t, "mini.owl")

	assert.Equal(t, "http://purl.obolibrary.org/obo/hp.owl", ont.Header["ontology"])
	assert.Equal(t, "http://purl.obolibrary.org/obo/hp/releases/2024-01-01/hp.owl", ont.Header["data-version"])
	require.Len(t, ont.TypeDefs, 1)
	assert.Equal(t, "BFO:0000050", ont.TypeDefs[0].ID)
	assert.True(t, ont.TypeDefs[0].IsTransitive)
}

func TestParseOWL_DeprecatedSkipped(t *testing.T) {
	ont := parseFixture(t, "mini.owl")
	assert.Nil(t, termByID(ont, "HP:0000002"))
	assert.Len(t, ont.Terms, 2)

	ont = parseFixture(t, "mini.owl", WithObsolete(true))
	assert.NotNil(t, termByID(ont, "HP:0000002"))
}

func TestParseOWL_Malformed(t *testing.T) {
	_, err := ParseOWL(strings.NewReader("<rdf:RDF><owl:Class>"))
	assert.Error(t, err)
}

func TestOboIDFromURI(t *testing.T) {
	assert.Equal(t, "HP:0000118", oboIDFromURI("http://purl.obolibrary.org/obo/HP_0000118"))
	assert.Equal(t, "hp.owl", oboIDFromURI("http://purl.obolibrary.org/obo/hp.owl"))
	assert.Equal(t, "urn:x", oboIDFromURI("urn:x"))
}
