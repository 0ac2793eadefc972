package scene

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/classify"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/figma"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/layout"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/logging"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/metrics"
)

// Library maps a component definition node id to its generated subtree.
type Library map[string]*Node

// FindMissingComponentIDs returns the component ids referenced by
// instances but defined nowhere in the document.
func FindMissingComponentIDs(idx *figma.Index) map[string]bool {
	referenced := make(map[string]bool)
	defined := make(map[string]bool)

	figma.Walk(idx.Root(), func(n *figma.Node) bool {
		switch n.Type {
		case figma.NodeInstance:
			if n.ComponentID != "" {
				referenced[n.ComponentID] = true
			}
		case figma.NodeComponent:
			defined[n.ID] = true
		}
		return true
	})

	missing := make(map[string]bool)
	for id := range referenced {
		if !defined[id] {
			missing[id] = true
		}
	}
	return missing
}

// PromoteMissingComponents repairs missing definitions: for each missing
// component id, the first instance found in document order is rewritten
// into a component definition (a new node value registered through the
// index), and every other instance sharing the id is re-pointed at the
// promoted node. The choice of canonical instance is order-dependent by
// design. Returns the missing-id to promoted-id mapping.
func PromoteMissingComponents(idx *figma.Index, missing map[string]bool) map[string]string {
	if len(missing) == 0 {
		return nil
	}

	promoted := make(map[string]string)

	figma.Walk(idx.Root(), func(n *figma.Node) bool {
		if n.Type != figma.NodeInstance || !missing[n.ComponentID] {
			return true
		}
		if _, done := promoted[n.ComponentID]; done {
			return true
		}

		def := *n
		def.Type = figma.NodeComponent
		def.ComponentID = ""
		idx.Replace(n.ID, &def)
		promoted[n.ComponentID] = def.ID

		metrics.RecordPromotion()
		logging.Info("promoted instance to component definition",
			zap.String("node_id", def.ID),
			zap.String("missing_component_id", n.ComponentID),
			zap.Strings("path", idx.PathTo(def.ID)))
		return true
	})

	// Re-point the remaining instances at their promoted definitions.
	figma.Walk(idx.Root(), func(n *figma.Node) bool {
		if n.Type == figma.NodeInstance {
			if target, ok := promoted[n.ComponentID]; ok {
				repointed := *n
				repointed.ComponentID = target
				idx.Replace(n.ID, &repointed)
			}
		}
		return true
	})

	return promoted
}

// Expander replaces instance placeholders with instantiated component
// subtrees and applies per-instance child overrides.
type Expander struct {
	Index   *figma.Index
	Library Library
	Tags    map[string]classify.Tag
	Opts    layout.Options
}

// ExpandLibrary expands nested instances inside every definition so that
// instantiating a definition yields a complete subtree. Cyclic
// references are cut and logged.
func (e *Expander) ExpandLibrary() {
	expanding := make(map[string]bool)

	var expandDef func(id string)
	expandDef = func(id string) {
		def, ok := e.Library[id]
		if !ok || expanding[id] {
			return
		}
		expanding[id] = true
		def.Walk(func(n *Node) bool {
			if n.Placeholder() && n != def {
				if expanding[n.ComponentRef] {
					logging.Warn("cyclic component reference, leaving unexpanded",
						zap.String("node_id", n.NodeID),
						zap.String("component_ref", n.ComponentRef))
					n.ClearPlaceholder()
					return false
				}
				expandDef(n.ComponentRef)
				e.instantiate(n, false)
				return false
			}
			return true
		})
		delete(expanding, id)
	}

	for id := range e.Library {
		expandDef(id)
	}
}

// Expand walks a generated root depth-first and instantiates every
// placeholder. Placeholders inside an already-instantiated subtree were
// populated by the definition's own expansion and are only unflagged.
func (e *Expander) Expand(root *Node) {
	e.expandNode(root, false)
}

func (e *Expander) expandNode(n *Node, insideInstantiated bool) {
	if n.Placeholder() {
		e.instantiate(n, insideInstantiated)
		return
	}
	for _, child := range n.Children {
		e.expandNode(child, insideInstantiated)
	}
}

// instantiate fills a placeholder from its definition's generated
// subtree, re-resolves the instance transform and applies per-instance
// child overrides. A missing definition is logged and skipped.
func (e *Expander) instantiate(n *Node, subsumed bool) {
	n.ClearPlaceholder()

	if subsumed {
		// An instantiated ancestor already carries this content.
		for _, child := range n.Children {
			e.expandNode(child, true)
		}
		return
	}

	def, ok := e.Library[n.ComponentRef]
	if !ok {
		logging.Warn("no definition for component instance, skipping",
			zap.String("node_id", n.NodeID),
			zap.String("component_ref", n.ComponentRef))
		return
	}

	clone := def.Clone()
	n.Children = clone.Children
	for _, c := range clone.Components {
		if n.ComponentOfKind(c.Kind) == nil {
			n.AttachComponent(c)
		}
	}
	if n.ImageRef == "" {
		n.ImageRef = clone.ImageRef
	}

	docNode, ok := e.Index.Lookup(n.NodeID)
	if !ok {
		logging.Warn("instance has no document node, keeping generated transform",
			zap.String("node_id", n.NodeID))
	} else {
		parent := e.Index.Parent(n.NodeID)
		if e.Tags[n.NodeID] == classify.TagServerSubstitute {
			n.Transform = layout.ResolveAbsolute(docNode, parent, e.Opts)
		} else {
			n.Transform = layout.Resolve(docNode, parent, e.Opts)
		}
		e.applyInstanceChildren(docNode, n)
	}

	metrics.RecordExpansion()

	// Anything the clone brought along is already expanded content.
	for _, child := range n.Children {
		e.expandNode(child, true)
	}
}

// applyInstanceChildren walks the instance's document children and
// matches them against the instantiated local children, overriding
// geometry, name and text per instance. Ids are namespaced per instance
// with a `;`-delimited path; matching uses the suffix after the last
// `;`. Children with no structural match are logged and skipped.
func (e *Expander) applyInstanceChildren(docParent *figma.Node, local *Node) {
	for _, docChild := range docParent.Children {
		key := idSuffix(docChild.ID)

		match := findBySuffix(local.Children, key)
		if match == nil {
			logging.Warn("no structural match for instance child, skipping",
				zap.String("instance_id", docParent.ID),
				zap.String("child_id", docChild.ID),
				zap.String("child_name", docChild.Name))
			continue
		}

		match.NodeID = docChild.ID
		match.Name = docChild.Name

		if e.Tags[docChild.ID] == classify.TagServerSubstitute {
			match.Transform = layout.ResolveAbsolute(docChild, docParent, e.Opts)
		} else {
			match.Transform = layout.Resolve(docChild, docParent, e.Opts)
		}

		if docChild.Characters != "" {
			if text := match.ComponentOfKind(KindText); text != nil {
				text.Set("characters", docChild.Characters)
			}
		}

		e.applyInstanceChildren(docChild, match)
	}
}

// idSuffix strips the `;`-delimited instance path from a namespaced id.
func idSuffix(id string) string {
	if i := strings.LastIndex(id, ";"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// findBySuffix matches a generated child whose id (itself possibly
// namespaced) ends in the same plain id.
func findBySuffix(children []*Node, key string) *Node {
	for _, child := range children {
		if idSuffix(child.NodeID) == key {
			return child
		}
	}
	return nil
}
