package hierarchy

// NodeID is an integer identifier for a graph node.
type NodeID uint32

// SymbolTable maps term identifiers to dense integer IDs for the traversal loops.
type SymbolTable struct {
	nameToID map[string]NodeID
	idToName []string
}

func NewSymbolTable(capacity int) *SymbolTable {
	return &SymbolTable{
		nameToID: make(map[string]NodeID, capacity),
		idToName: make([]string, 0, capacity),
	}
}

// Intern returns the NodeID for the given name, creating one if needed.
// The second result reports whether the ID was newly created.
func (st *SymbolTable) Intern(name string) (NodeID, bool) {
	if id, ok := st.nameToID[name]; ok {
		return id, false
	}
	id := NodeID(len(st.idToName))
	st.nameToID[name] = id
	st.idToName = append(st.idToName, name)
	return id, true
}

// Lookup returns the NodeID for name without creating it.
func (st *SymbolTable) Lookup(name string) (NodeID, bool) {
	id, ok := st.nameToID[name]
	return id, ok
}

func (st *SymbolTable) Count() int { return len(st.idToName) }

// Name returns the string name for a NodeID.
func (st *SymbolTable) Name(id NodeID) string {
	if int(id) < len(st.idToName) {
		return st.idToName[id]
	}
	return ""
}
