package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingInputError(t *testing.T) {
	err := &MissingInputError{Path: "/data/phenotype_to_genes.txt"}
	assert.Equal(t, "missing input file: /data/phenotype_to_genes.txt", err.Error())
}

func TestMalformedLineError(t *testing.T) {
	err := &MalformedLineError{Path: "p2g.txt", Line: 4, Fields: 3, Want: 7}
	assert.Equal(t, "p2g.txt:4: got 3 fields, want at least 7", err.Error())

	err.Path = ""
	assert.Equal(t, "line 4: got 3 fields, want at least 7", err.Error())
}

func TestSourceUnavailableError_Unwrap(t *testing.T) {
	err := fmt.Errorf("export: %w", &SourceUnavailableError{Location: "hp.obo", Err: io.ErrUnexpectedEOF})

	var srcErr *SourceUnavailableError
	assert.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "hp.obo", srcErr.Location)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestMalformedRelationshipError(t *testing.T) {
	err := &MalformedRelationshipError{TermID: "HP:0000001", Value: "part_of"}
	assert.Contains(t, err.Error(), "HP:0000001")
	assert.Contains(t, err.Error(), `"part_of"`)
}
