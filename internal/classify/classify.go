// Package classify decides, per document node, whether a subtree is
// reconstructed natively or replaced by a server-rendered raster.
package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/figma"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/logging"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/metrics"
)

// Tag is a node's render classification.
type Tag int

const (
	// TagNative marks a node rebuilt as live scene elements.
	TagNative Tag = iota
	// TagServerExport marks a node rasterized because it carries explicit
	// export settings.
	TagServerExport
	// TagServerSubstitute marks a vector-heavy subtree replaced wholesale
	// by a raster.
	TagServerSubstitute
)

// String returns the tag name.
func (t Tag) String() string {
	switch t {
	case TagServerExport:
		return "server_export"
	case TagServerSubstitute:
		return "server_substitute"
	default:
		return "native"
	}
}

// Result is the outcome of one classification pass.
type Result struct {
	// Tags maps node id to its render classification. Nodes that emit
	// nothing (invisible, or instances covered by their definition) are
	// absent.
	Tags map[string]Tag
	// RenderIDs lists the ids classified TagServerExport or
	// TagServerSubstitute, in discovery order. These need server
	// rasterization.
	RenderIDs []string
	// ImageFills lists imageRef ids needing download, de-duplicated in
	// first-seen order.
	ImageFills []string
}

// Classifier walks page subtrees and assigns render tags.
type Classifier struct {
	selectedPages map[string]bool // empty = all pages selected
	missing       map[string]bool // component ids with no definition
}

// New creates a classifier. selectedPages is the set of page ids chosen
// for import (empty means every page); missing is the set of component
// ids referenced by instances but defined nowhere.
func New(selectedPages, missing map[string]bool) *Classifier {
	return &Classifier{selectedPages: selectedPages, missing: missing}
}

// pageSelected reports whether a page participates in the import.
func (c *Classifier) pageSelected(pageID string) bool {
	return len(c.selectedPages) == 0 || c.selectedPages[pageID]
}

// context is the immutable state threaded through the recursive descent.
type context struct {
	depth           int
	withinComponent bool
	selectedPage    bool
}

// Classify walks every page under the document root and produces the tag
// map, the server-render worklist and the image-fill worklist.
func (c *Classifier) Classify(doc *figma.Node) *Result {
	res := &Result{Tags: make(map[string]Tag)}
	if doc == nil {
		return res
	}

	for _, page := range doc.Children {
		ctx := context{depth: 0, selectedPage: c.pageSelected(page.ID)}
		c.classifyNode(page, ctx, res)
	}

	seen := make(map[string]bool)
	for _, page := range doc.Children {
		ctx := context{depth: 0, selectedPage: c.pageSelected(page.ID)}
		c.collectImageFills(page, ctx, seen, res)
	}

	for _, tag := range res.Tags {
		metrics.RecordClassification(tag.String())
	}
	return res
}

// classifyNode applies the decision rules to one node, first match wins,
// and descends only when no rule terminated the subtree.
func (c *Classifier) classifyNode(n *figma.Node, ctx context, res *Result) {
	// Instances whose definition exists are covered by that definition;
	// invisible nodes are not renderable. Neither emits anything.
	if (n.Type == figma.NodeInstance && !c.missing[n.ComponentID]) || !n.IsVisible() {
		return
	}

	within := ctx.withinComponent || n.Type == figma.NodeComponent

	if (ctx.selectedPage || within) && ctx.depth == 1 && len(n.ExportSettings) > 0 {
		res.Tags[n.ID] = TagServerExport
		res.RenderIDs = append(res.RenderIDs, n.ID)
		return
	}

	if within && c.shouldSubstitute(n, ctx.depth) {
		res.Tags[n.ID] = TagServerSubstitute
		res.RenderIDs = append(res.RenderIDs, n.ID)
		return
	}

	res.Tags[n.ID] = TagNative

	child := context{
		depth:           ctx.depth + 1,
		withinComponent: within,
		selectedPage:    ctx.selectedPage,
	}
	for _, ch := range n.Children {
		c.classifyNode(ch, child, res)
	}
}

// substitutableTypes are the only node types allowed anywhere inside a
// server-substituted subtree.
var substitutableTypes = map[figma.NodeType]bool{
	figma.NodeVector:    true,
	figma.NodeGroup:     true,
	figma.NodeFrame:     true,
	figma.NodeComponent: true,
	figma.NodeInstance:  true,
}

// shouldSubstitute is the substitution predicate, evaluated only within
// component definitions.
func (c *Classifier) shouldSubstitute(n *figma.Node, depth int) bool {
	if n.Type == figma.NodeCanvas {
		return false
	}
	// A top-level frame is a screen, never a raster.
	if n.Type == figma.NodeFrame && depth <= 1 {
		return false
	}
	if strings.Contains(strings.ToLower(n.Name), "render") {
		return true
	}
	if n.Type == figma.NodeVector || n.Type == figma.NodeBooleanOperation {
		return true
	}

	allAllowed, vectorCount := scanSubstitutable(n)
	return allAllowed && vectorCount > 0
}

// scanSubstitutable checks in one recursive pass that the whole subtree
// (inclusive) uses only substitutable types, counting vectors along the
// way. Any disallowed type anywhere disqualifies the subtree.
func scanSubstitutable(n *figma.Node) (allAllowed bool, vectorCount int) {
	if !substitutableTypes[n.Type] {
		return false, 0
	}
	if n.Type == figma.NodeVector {
		vectorCount++
	}
	for _, child := range n.Children {
		ok, vectors := scanSubstitutable(child)
		if !ok {
			return false, 0
		}
		vectorCount += vectors
	}
	return true, vectorCount
}

// collectImageFills walks a page gathering imageRef ids from visible
// image fills. The scan is separate from classification: a node
// contributes its fills unless it is a stray root image (a shallow
// non-frame, non-component node) or lies on an unselected page outside
// any component definition.
func (c *Classifier) collectImageFills(n *figma.Node, ctx context, seen map[string]bool, res *Result) {
	if !n.IsVisible() {
		return
	}

	within := ctx.withinComponent || n.Type == figma.NodeComponent

	strayRootImage := ctx.depth <= 1 &&
		n.Type != figma.NodeFrame && n.Type != figma.NodeComponent && n.Type != figma.NodeCanvas

	if !strayRootImage && (ctx.selectedPage || within) {
		for i := range n.Fills {
			p := &n.Fills[i]
			if p.Type != "IMAGE" || !p.IsVisible() || p.ImageRef == "" {
				continue
			}
			if seen[p.ImageRef] {
				continue
			}
			seen[p.ImageRef] = true
			res.ImageFills = append(res.ImageFills, p.ImageRef)
			metrics.RecordImageFill()
			logging.Debug("image fill discovered",
				zap.String("node_id", n.ID),
				zap.String("image_ref", p.ImageRef))
		}
	}

	child := context{
		depth:           ctx.depth + 1,
		withinComponent: within,
		selectedPage:    ctx.selectedPage,
	}
	for _, ch := range n.Children {
		c.collectImageFills(ch, child, seen, res)
	}
}
