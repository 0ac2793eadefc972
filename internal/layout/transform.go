// Package layout resolves Figma geometry and constraints into anchored
// rect transforms for the generated scene.
//
// Figma places nodes in a Y-down document space; the generated scene uses
// Y-up anchored rects (anchor fractions within the parent, a pivot, an
// anchored position and a size). Two resolution modes exist: relative
// mode reads the node's relativeTransform (native reconstruction), and
// absolute mode derives the placement from absolute bounding boxes
// (server-rendered substitutes, whose rotation is baked into the raster).
package layout

import (
	"math"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/figma"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/metrics"
)

// Vec2 is a 2D vector.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// RectTransform is an anchored rectangular transform. Anchors and pivot
// are fractions of the parent rect with (0,0) at bottom-left and (0,1)
// at top-left; rotation is counter-clockwise degrees.
type RectTransform struct {
	AnchorMin        Vec2    `json:"anchor_min"`
	AnchorMax        Vec2    `json:"anchor_max"`
	Pivot            Vec2    `json:"pivot"`
	AnchoredPosition Vec2    `json:"anchored_position"`
	SizeDelta        Vec2    `json:"size_delta"`
	Rotation         float64 `json:"rotation,omitempty"`
}

// topLeft is the default anchoring: a node pinned to its parent's
// top-left corner with a top-left pivot.
func topLeft() RectTransform {
	return RectTransform{
		AnchorMin: Vec2{0, 1},
		AnchorMax: Vec2{0, 1},
		Pivot:     Vec2{0, 1},
	}
}

// Options controls transform resolution.
type Options struct {
	// CenterPivot recomputes every pivot to (0.5, 0.5), compensating the
	// position so on-screen placement is unchanged.
	CenterPivot bool
}

// Resolve converts a node's relative geometry into an anchored transform
// (relative mode). Missing geometry defaults to identity/zero.
func Resolve(node, parent *figma.Node, opts Options) RectTransform {
	metrics.RecordTransform("relative")

	rt := topLeft()

	if m := node.RelativeTransform; m != nil {
		rt.AnchoredPosition = Vec2{m[0][2], -m[1][2]}
		rt.Rotation = math.Atan2(-m[1][0], m[0][0]) * 180 / math.Pi
	}
	if node.Size != nil {
		rt.SizeDelta = Vec2{node.Size.X, node.Size.Y}
	}

	applyConstraints(&rt, constraintsFor(node), parentSize(parent))

	if opts.CenterPivot {
		centerPivot(&rt)
	}
	return rt
}

// ResolveAbsolute converts a node's absolute bounding box into an
// anchored transform relative to its parent's box (absolute mode). The
// raster already carries any rotation, so none is resolved.
func ResolveAbsolute(node, parent *figma.Node, opts Options) RectTransform {
	metrics.RecordTransform("absolute")

	rt := topLeft()

	if b := node.AbsoluteBoundingBox; b != nil {
		rt.SizeDelta = Vec2{b.Width, b.Height}
		if parent != nil && parent.AbsoluteBoundingBox != nil {
			p := parent.AbsoluteBoundingBox
			rt.AnchoredPosition = Vec2{b.X - p.X, -(b.Y - p.Y)}
		}
	}

	applyConstraints(&rt, constraintsFor(node), parentSize(parent))

	if opts.CenterPivot {
		centerPivot(&rt)
	}
	return rt
}

// constraintsFor returns the constraints that govern a node. Groups have
// no constraints of their own in Figma; the first child's are used.
func constraintsFor(node *figma.Node) *figma.Constraints {
	if node.Type == figma.NodeGroup && len(node.Children) > 0 {
		if c := node.Children[0].Constraints; c != nil {
			return c
		}
	}
	return node.Constraints
}

// parentSize returns the parent's size, falling back to its absolute
// bounding box, then to zero.
func parentSize(parent *figma.Node) Vec2 {
	if parent == nil {
		return Vec2{}
	}
	if parent.Size != nil {
		return Vec2{parent.Size.X, parent.Size.Y}
	}
	if b := parent.AbsoluteBoundingBox; b != nil {
		return Vec2{b.Width, b.Height}
	}
	return Vec2{}
}

// applyConstraints rewrites the anchors and offsets the position and size
// for the node's constraints. Two-sided and SCALE constraints stretch:
// the anchors span the parent and the size becomes a delta against the
// parent's size.
func applyConstraints(rt *RectTransform, cons *figma.Constraints, parent Vec2) {
	if cons == nil {
		return
	}

	switch cons.Horizontal {
	case figma.ConstraintLeft:
		rt.AnchorMin.X, rt.AnchorMax.X = 0, 0
	case figma.ConstraintRight:
		rt.AnchorMin.X, rt.AnchorMax.X = 1, 1
		rt.AnchoredPosition.X -= parent.X
	case figma.ConstraintCenterH:
		rt.AnchorMin.X, rt.AnchorMax.X = 0.5, 0.5
		rt.AnchoredPosition.X -= parent.X / 2
	case figma.ConstraintLeftRight, figma.ConstraintScaleH:
		rt.AnchorMin.X, rt.AnchorMax.X = 0, 1
		rt.SizeDelta.X -= parent.X
	}

	switch cons.Vertical {
	case figma.ConstraintTop:
		rt.AnchorMin.Y, rt.AnchorMax.Y = 1, 1
	case figma.ConstraintBottom:
		rt.AnchorMin.Y, rt.AnchorMax.Y = 0, 0
		rt.AnchoredPosition.Y += parent.Y
	case figma.ConstraintCenterV:
		rt.AnchorMin.Y, rt.AnchorMax.Y = 0.5, 0.5
		rt.AnchoredPosition.Y += parent.Y / 2
	case figma.ConstraintTopBottom, figma.ConstraintScaleV:
		rt.AnchorMin.Y, rt.AnchorMax.Y = 0, 1
		rt.SizeDelta.Y -= parent.Y
	}
}

// centerPivot moves the pivot to (0.5, 0.5) and compensates the anchored
// position so the node does not move on screen. The compensation vector
// is rotated by the node's own rotation.
func centerPivot(rt *RectTransform) {
	dx := (0.5 - rt.Pivot.X) * rt.SizeDelta.X
	dy := (0.5 - rt.Pivot.Y) * rt.SizeDelta.Y

	rad := rt.Rotation * math.Pi / 180
	sin, cos := math.Sincos(rad)

	rt.AnchoredPosition = rt.AnchoredPosition.Add(Vec2{
		X: cos*dx - sin*dy,
		Y: sin*dx + cos*dy,
	})
	rt.Pivot = Vec2{0.5, 0.5}
}
