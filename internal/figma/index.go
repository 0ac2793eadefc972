package figma

// Index is an id lookup over one document tree. It is built once per
// import and is read-only afterwards, with one sanctioned exception:
// Replace, used when an instance node is promoted to a component
// definition during missing-definition repair.
type Index struct {
	root    *Node
	byID    map[string]*Node
	parents map[string]*Node
}

// BuildIndex builds an id index with one depth-first traversal. Later
// nodes with a duplicate id overwrite earlier ones; documents are assumed
// well-formed.
func BuildIndex(root *Node) *Index {
	idx := &Index{
		root:    root,
		byID:    make(map[string]*Node),
		parents: make(map[string]*Node),
	}
	idx.insert(root, nil)
	return idx
}

func (idx *Index) insert(n *Node, parent *Node) {
	idx.byID[n.ID] = n
	if parent != nil {
		idx.parents[n.ID] = parent
	}
	for _, child := range n.Children {
		idx.insert(child, n)
	}
}

// Root returns the document root.
func (idx *Index) Root() *Node {
	return idx.root
}

// Len returns the number of indexed nodes.
func (idx *Index) Len() int {
	return len(idx.byID)
}

// Lookup finds a node by id.
func (idx *Index) Lookup(id string) (*Node, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

// Parent returns the parent of the node with the given id, or nil for
// the root and unknown ids.
func (idx *Index) Parent(id string) *Node {
	return idx.parents[id]
}

// PathTo returns the names along the path from the root to the node with
// the given id, by a fresh depth-first search. Diagnostics only, not a
// hot path.
func (idx *Index) PathTo(id string) []string {
	var stack []string
	var found []string

	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		stack = append(stack, n.Name)
		if n.ID == id {
			found = append([]string(nil), stack...)
			return true
		}
		for _, child := range n.Children {
			if walk(child) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		return false
	}

	if idx.root != nil {
		walk(idx.root)
	}
	return found
}

// Replace swaps the node registered under id for a new node value and
// re-registers its subtree. The node is also swapped in its parent's
// child list so the tree and the index stay consistent.
func (idx *Index) Replace(id string, replacement *Node) {
	old, ok := idx.byID[id]
	if !ok {
		return
	}
	parent := idx.parents[id]
	if parent != nil {
		for i, child := range parent.Children {
			if child == old {
				parent.Children[i] = replacement
				break
			}
		}
	}
	idx.byID[replacement.ID] = replacement
	if parent != nil {
		idx.parents[replacement.ID] = parent
	}
	for _, child := range replacement.Children {
		idx.insert(child, replacement)
	}
}

// Walk visits n and its descendants depth-first, in child order. If fn
// returns false the subtree below the current node is skipped.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		Walk(child, fn)
	}
}

// CountNodes counts n and all of its descendants.
func CountNodes(n *Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, child := range n.Children {
		count += CountNodes(child)
	}
	return count
}
