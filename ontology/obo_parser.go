package ontology

import (
	"bufio"
	"io"
	"strings"
)

const (
	initialTermCapacity = 20000   // HPO has ~19k terms
	scannerBufferSize   = 1 << 20 // 1 MB
)

// internPool avoids duplicate string allocations for repeated values.
type internPool struct {
	m map[string]string
}

func newInternPool() *internPool {
	return &internPool{m: make(map[string]string, 64)}
}

func (p *internPool) get(s string) string {
	if v, ok := p.m[s]; ok {
		return v
	}
	p.m[s] = s
	return s
}

type parseConfig struct {
	keepObsolete bool
}

// ParseOption configures ParseOBO and ParseOWL.
type ParseOption func(*parseConfig)

// WithObsolete keeps terms marked is_obsolete. They are dropped by default.
func WithObsolete(keep bool) ParseOption {
	return func(c *parseConfig) { c.keepObsolete = keep }
}

type stanzaKind int

const (
	stanzaHeader stanzaKind = iota
	stanzaTerm
	stanzaTypedef
	stanzaOther
)

// ParseOBO parses an OBO 1.2/1.4 document from the given reader.
func ParseOBO(r io.Reader, opts ...ParseOption) (*Ontology, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	ont := &Ontology{
		Header: make(map[string]string, 8),
		Terms:  make([]Term, 0, initialTermCapacity),
	}
	pool := newInternPool()

	kind := stanzaHeader
	var term Term
	var td TypeDef

	flush := func() {
		switch kind {
		case stanzaTerm:
			if term.ID != "" && (cfg.keepObsolete || !term.IsObsolete()) {
				ont.Terms = append(ont.Terms, term)
			}
		case stanzaTypedef:
			if td.ID != "" {
				ont.TypeDefs = append(ont.TypeDefs, td)
			}
		}
		term = Term{}
		td = TypeDef{}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '!' {
			continue
		}
		if line[0] == '[' {
			flush()
			switch line {
			case "[Term]":
				kind = stanzaTerm
			case "[Typedef]":
				kind = stanzaTypedef
			default:
				kind = stanzaOther
			}
			continue
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = pool.get(strings.TrimSpace(key))
		val = cleanValue(strings.TrimSpace(val))

		switch kind {
		case stanzaHeader:
			if _, seen := ont.Header[key]; !seen {
				ont.Header[key] = val
			}
		case stanzaTerm:
			if key == "id" {
				term.ID = val
				continue
			}
			if key == "is_a" {
				val = pool.get(val)
			}
			term.add(key, val)
		case stanzaTypedef:
			parseTypeDefLine(&td, key, val)
		}
	}
	flush()

	return ont, scanner.Err()
}

func parseTypeDefLine(td *TypeDef, key, val string) {
	switch key {
	case "id":
		td.ID = val
	case "name":
		td.Name = val
	case "is_transitive":
		td.IsTransitive = val == "true"
	}
}

// cleanValue strips a trailing "! comment" and "{modifier}" block from a
// tag value. Quoted text is left alone.
func cleanValue(val string) string {
	inQuote := false
	cut := len(val)
	modifier := -1

scan:
	for i := 0; i < len(val); i++ {
		c := val[i]
		switch {
		case c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '!' && (i == 0 || val[i-1] == ' ' || val[i-1] == '\t'):
			cut = i
			break scan
		case c == '{':
			modifier = i
		}
	}

	v := strings.TrimRight(val[:cut], " \t")
	if modifier >= 0 && modifier < len(v) && strings.HasSuffix(v, "}") {
		v = strings.TrimRight(v[:modifier], " \t")
	}
	return v
}
