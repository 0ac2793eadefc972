package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/classify"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/figma"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/layout"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/logging"
)

// Generator turns classified document subtrees into generated scene
// trees. Instances become placeholders expanded later against the
// component library.
type Generator struct {
	Index  *figma.Index
	Result *classify.Result
	Opts   layout.Options
}

// Screens generates one root per visible top-level frame of a page (the
// import unit that becomes a standalone scene root).
func (g *Generator) Screens(page *figma.Node) []*Node {
	var roots []*Node
	for _, child := range page.Children {
		if child.Type != figma.NodeFrame && child.Type != figma.NodeSection {
			continue
		}
		if child.Type == figma.NodeSection {
			// Screens may sit one level down inside a section.
			for _, inner := range child.Children {
				if inner.Type == figma.NodeFrame {
					if root := g.Generate(inner, child); root != nil {
						roots = append(roots, root)
					}
				}
			}
			continue
		}
		if root := g.Generate(child, page); root != nil {
			roots = append(roots, root)
		}
	}
	return roots
}

// ComponentLibrary generates one subtree per component definition found
// anywhere in the document, keyed by the definition's node id.
func (g *Generator) ComponentLibrary(doc *figma.Node) Library {
	lib := make(Library)
	figma.Walk(doc, func(n *figma.Node) bool {
		if n.Type != figma.NodeComponent {
			return true
		}
		parent := g.Index.Parent(n.ID)
		if root := g.Generate(n, parent); root != nil {
			lib[n.ID] = root
		}
		// Components do not nest definitions; no need to descend.
		return false
	})
	return lib
}

// Generate builds the generated subtree for one document node. Returns
// nil for invisible nodes.
func (g *Generator) Generate(n, parent *figma.Node) *Node {
	if n == nil || !n.IsVisible() {
		return nil
	}

	out := &Node{NodeID: n.ID, Name: n.Name}
	tag := g.Result.Tags[n.ID]

	if tag == classify.TagServerExport || tag == classify.TagServerSubstitute {
		out.Transform = layout.ResolveAbsolute(n, parent, g.Opts)
		out.ImageRef = n.ID
		raster := NewComponent(KindRaster)
		raster.Set("ref", n.ID)
		out.AttachComponent(raster)
		// The raster stands in for the whole subtree.
		return out
	}

	out.Transform = layout.Resolve(n, parent, g.Opts)

	if n.Type == figma.NodeInstance {
		out.ComponentRef = n.ComponentID
		out.MarkPlaceholder()
		// Children come from the definition during expansion.
		return out
	}

	g.attachContent(n, out)

	for _, child := range n.Children {
		if gc := g.Generate(child, n); gc != nil {
			out.Children = append(out.Children, gc)
		}
	}
	return out
}

// attachContent derives property-bag components from the node's own
// content: text characters, image fills, solid background.
func (g *Generator) attachContent(n *figma.Node, out *Node) {
	if n.Type == figma.NodeText && n.Characters != "" {
		text := NewComponent(KindText)
		text.Set("characters", n.Characters)
		out.AttachComponent(text)
	}

	for i := range n.Fills {
		p := &n.Fills[i]
		if !p.IsVisible() {
			continue
		}
		switch {
		case p.Type == "IMAGE" && p.ImageRef != "":
			img := NewComponent(KindImage)
			img.Set("ref", p.ImageRef)
			out.AttachComponent(img)
		case p.Type == "SOLID" && p.Color != nil:
			bg := NewComponent(KindBackground)
			bg.Set("color", hexColor(p.Color, p.Opacity))
			out.AttachComponent(bg)
		default:
			logging.Debug("unsupported fill type, skipping",
				zap.String("node_id", n.ID),
				zap.String("fill_type", p.Type))
		}
	}
}

// hexColor renders a paint color as #RRGGBBAA.
func hexColor(c *figma.Color, opacity *float64) string {
	a := c.A
	if opacity != nil {
		a *= *opacity
	}
	return fmt.Sprintf("#%02X%02X%02X%02X",
		channel(c.R), channel(c.G), channel(c.B), channel(a))
}

func channel(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(v*255 + 0.5)
}
