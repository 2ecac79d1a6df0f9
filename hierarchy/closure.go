package hierarchy

// Descendants returns every node reachable from id by following outgoing
// edges. With is_a edges pointing at parents these are the term's
// taxonomic ancestors. The node itself is never included.
func (g *Graph) Descendants(id string) []string {
	n, ok := g.st.Lookup(id)
	if !ok {
		return nil
	}
	return g.names(g.reach(n, g.succ))
}

// Ancestors returns every node that can reach id, i.e. the term's
// taxonomic descendants. The node itself is never included.
func (g *Graph) Ancestors(id string) []string {
	n, ok := g.st.Lookup(id)
	if !ok {
		return nil
	}
	return g.names(g.reach(n, g.pred))
}

// reach walks adj from start with a LIFO worklist. Cycles terminate
// because each node is visited once.
func (g *Graph) reach(start NodeID, adj [][]NodeID) []NodeID {
	seen := map[NodeID]struct{}{start: {}}
	worklist := append(make([]NodeID, 0, 16), adj[start]...)
	out := make([]NodeID, 0, 16)

	for len(worklist) > 0 {
		c := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if _, exists := seen[c]; exists {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		worklist = append(worklist, adj[c]...)
	}
	return out
}

// Stats summarises the graph shape.
type Stats struct {
	Nodes    int `json:"nodes"`
	Declared int `json:"declared"`
	Edges    int `json:"edges"`
	Roots    int `json:"roots"`
}

// Stats counts nodes, declared terms, edges and roots (declared terms
// without outgoing edges).
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: g.st.Count(), Edges: g.edges}
	for id := range g.attrs {
		if g.attrs[id] == nil {
			continue
		}
		s.Declared++
		if len(g.succ[id]) == 0 {
			s.Roots++
		}
	}
	return s
}
