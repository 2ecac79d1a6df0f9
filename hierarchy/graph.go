// Package hierarchy holds the directed term graph built from a parsed
// ontology. Edges point from a term to its parent (is_a), so following
// outgoing edges climbs towards the root.
package hierarchy

import (
	"strings"

	"github.com/nodeadmin/hpo-parser/ontology"
)

// Graph is an immutable directed graph of ontology terms.
type Graph struct {
	st    *SymbolTable
	attrs []map[string][]string // nil for nodes only referenced as edge targets
	succ  [][]NodeID            // outgoing: term -> parents
	pred  [][]NodeID            // incoming: term -> children
	edges int
}

type buildConfig struct {
	relationshipEdges bool
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithRelationshipEdges adds an edge for every well-formed relationship
// value in addition to is_a.
func WithRelationshipEdges(on bool) BuildOption {
	return func(c *buildConfig) { c.relationshipEdges = on }
}

// Build constructs the graph. Nodes are ordered by first appearance:
// declared terms in file order, then undeclared edge targets.
func Build(ont *ontology.Ontology, opts ...BuildOption) *Graph {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	st := NewSymbolTable(len(ont.Terms))

	// First pass: register every declared term.
	for i := range ont.Terms {
		st.Intern(ont.Terms[i].ID)
	}

	g := &Graph{st: st}
	g.grow(st.Count())
	for i := range ont.Terms {
		t := &ont.Terms[i]
		id, _ := st.Lookup(t.ID)
		g.attrs[id] = t.Attrs
		if g.attrs[id] == nil {
			g.attrs[id] = map[string][]string{}
		}
	}

	// Second pass: edges. Targets that are not declared become bare nodes.
	for i := range ont.Terms {
		t := &ont.Terms[i]
		from, _ := st.Lookup(t.ID)

		for _, parent := range t.Attrs["is_a"] {
			g.addEdge(from, g.intern(parent))
		}
		if !cfg.relationshipEdges {
			continue
		}
		for _, rel := range t.Attrs["relationship"] {
			// Malformed values are rejected when the term is enriched;
			// here they only contribute no edge.
			parts := strings.Split(rel, " ")
			if len(parts) != 2 {
				continue
			}
			g.addEdge(from, g.intern(parts[1]))
		}
	}

	return g
}

func (g *Graph) intern(name string) NodeID {
	id, created := g.st.Intern(name)
	if created {
		g.grow(g.st.Count())
	}
	return id
}

func (g *Graph) grow(n int) {
	for len(g.attrs) < n {
		g.attrs = append(g.attrs, nil)
		g.succ = append(g.succ, nil)
		g.pred = append(g.pred, nil)
	}
}

// addEdge adds from -> to. Parallel edges collapse into one.
func (g *Graph) addEdge(from, to NodeID) {
	for _, existing := range g.succ[from] {
		if existing == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
	g.edges++
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return g.st.Count() }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Nodes returns node identifiers in insertion order.
func (g *Graph) Nodes() []string {
	names := make([]string, g.st.Count())
	copy(names, g.st.idToName)
	return names
}

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool {
	_, ok := g.st.Lookup(id)
	return ok
}

// Attrs returns the raw attributes of a node. The map is shared with the
// graph and must not be modified.
func (g *Graph) Attrs(id string) map[string][]string {
	n, ok := g.st.Lookup(id)
	if !ok {
		return nil
	}
	return g.attrs[n]
}

// Successors returns the direct targets of id's outgoing edges.
func (g *Graph) Successors(id string) []string {
	n, ok := g.st.Lookup(id)
	if !ok {
		return nil
	}
	return g.names(g.succ[n])
}

// Predecessors returns the nodes with an edge pointing to id.
func (g *Graph) Predecessors(id string) []string {
	n, ok := g.st.Lookup(id)
	if !ok {
		return nil
	}
	return g.names(g.pred[n])
}

func (g *Graph) names(ids []NodeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.st.Name(id))
	}
	return out
}
