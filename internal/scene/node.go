// Package scene holds the generated scene tree: the output side of an
// import, handed to the native-UI backend for materialization.
package scene

import (
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/layout"
)

// Node is one generated scene element. Nodes are exclusively owned by
// the generation pass that created them until handed to the merge
// engine, which may graft backup subtrees onto the tree.
type Node struct {
	// NodeID is the originating document node id.
	NodeID string `json:"node_id"`
	Name   string `json:"name"`

	Transform layout.RectTransform `json:"transform"`

	// ComponentRef is set when this node is an instance of a component
	// definition (the definition's node id).
	ComponentRef string `json:"component_ref,omitempty"`

	// ImageRef is set when this node is materialized from a
	// server-rendered raster (the rendered node's id).
	ImageRef string `json:"image_ref,omitempty"`

	Components []*Component `json:"components,omitempty"`
	Children   []*Node      `json:"children,omitempty"`

	// placeholder marks an instance node whose definition subtree has not
	// been expanded yet. Never persisted: expansion clears every marker
	// before a tree reaches the merge engine or a snapshot.
	placeholder bool
}

// Placeholder reports whether the node still awaits component expansion.
func (n *Node) Placeholder() bool {
	return n.placeholder
}

// MarkPlaceholder flags the node for component expansion.
func (n *Node) MarkPlaceholder() {
	n.placeholder = true
}

// ClearPlaceholder unflags the node.
func (n *Node) ClearPlaceholder() {
	n.placeholder = false
}

// Clone deep-copies the node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		NodeID:       n.NodeID,
		Name:         n.Name,
		Transform:    n.Transform,
		ComponentRef: n.ComponentRef,
		ImageRef:     n.ImageRef,
		placeholder:  n.placeholder,
	}
	for _, c := range n.Components {
		out.Components = append(out.Components, c.Clone())
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, child.Clone())
	}
	return out
}

// FindChild returns the first direct child with the given name, or nil.
func (n *Node) FindChild(name string) *Node {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// InsertChild inserts child at index i, clamped to the child list.
func (n *Node) InsertChild(i int, child *Node) {
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
}

// ComponentOfKind returns the attached component with the given kind, or
// nil.
func (n *Node) ComponentOfKind(kind string) *Component {
	for _, c := range n.Components {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// AttachComponent appends a component to the node.
func (n *Node) AttachComponent(c *Component) {
	n.Components = append(n.Components, c)
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, child := range n.Children {
		count += child.Count()
	}
	return count
}

// Walk visits n and its descendants depth-first. If fn returns false the
// subtree below the current node is skipped.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}
