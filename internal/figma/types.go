// Package figma models the Figma document tree and provides the REST
// client and id index used by the import pipeline.
package figma

// NodeType identifies the kind of a document node.
type NodeType string

const (
	NodeDocument         NodeType = "DOCUMENT"
	NodeCanvas           NodeType = "CANVAS"
	NodeSection          NodeType = "SECTION"
	NodeFrame            NodeType = "FRAME"
	NodeGroup            NodeType = "GROUP"
	NodeComponent        NodeType = "COMPONENT"
	NodeComponentSet     NodeType = "COMPONENT_SET"
	NodeInstance         NodeType = "INSTANCE"
	NodeVector           NodeType = "VECTOR"
	NodeBooleanOperation NodeType = "BOOLEAN_OPERATION"
	NodeText             NodeType = "TEXT"
	NodeRectangle        NodeType = "RECTANGLE"
	NodeEllipse          NodeType = "ELLIPSE"
	NodeLine             NodeType = "LINE"
	NodeStar             NodeType = "STAR"
	NodeRegularPolygon   NodeType = "REGULAR_POLYGON"
	NodeSlice            NodeType = "SLICE"
)

// HorizontalConstraint anchors a node horizontally within its parent.
type HorizontalConstraint string

const (
	ConstraintLeft      HorizontalConstraint = "LEFT"
	ConstraintRight     HorizontalConstraint = "RIGHT"
	ConstraintCenterH   HorizontalConstraint = "CENTER"
	ConstraintLeftRight HorizontalConstraint = "LEFT_RIGHT"
	ConstraintScaleH    HorizontalConstraint = "SCALE"
)

// VerticalConstraint anchors a node vertically within its parent.
type VerticalConstraint string

const (
	ConstraintTop       VerticalConstraint = "TOP"
	ConstraintBottom    VerticalConstraint = "BOTTOM"
	ConstraintCenterV   VerticalConstraint = "CENTER"
	ConstraintTopBottom VerticalConstraint = "TOP_BOTTOM"
	ConstraintScaleV    VerticalConstraint = "SCALE"
)

// Constraints holds the layout constraints of a node.
type Constraints struct {
	Horizontal HorizontalConstraint `json:"horizontal"`
	Vertical   VerticalConstraint   `json:"vertical"`
}

// Vector is a 2D point or size.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in document space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Matrix is a 2x3 affine transform (rotation + translation), row-major.
type Matrix [2][3]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}}
}

// Color is an RGBA color with components in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Paint describes one fill or stroke layer.
type Paint struct {
	Type     string   `json:"type"` // SOLID, IMAGE, GRADIENT_LINEAR, ...
	Visible  *bool    `json:"visible,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Color    *Color   `json:"color,omitempty"`
	ImageRef string   `json:"imageRef,omitempty"`
}

// IsVisible reports whether the paint is visible (Figma omits the field
// when true).
func (p *Paint) IsVisible() bool {
	return p.Visible == nil || *p.Visible
}

// ExportSetting is a per-node rasterization request configured in Figma.
type ExportSetting struct {
	Suffix string `json:"suffix"`
	Format string `json:"format"`
}

// FlowStartingPoint marks a prototype entry point on a page.
type FlowStartingPoint struct {
	NodeID string `json:"nodeId"`
	Name   string `json:"name"`
}

// Node is one node of the Figma document tree. All fields are read-only
// during import; the only sanctioned mutation is the instance-to-component
// promotion performed through Index.Replace.
type Node struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Type                NodeType            `json:"type"`
	Visible             *bool               `json:"visible,omitempty"`
	Children            []*Node             `json:"children,omitempty"`
	ComponentID         string              `json:"componentId,omitempty"`
	Characters          string              `json:"characters,omitempty"`
	RelativeTransform   *Matrix             `json:"relativeTransform,omitempty"`
	Size                *Vector             `json:"size,omitempty"`
	AbsoluteBoundingBox *Rect               `json:"absoluteBoundingBox,omitempty"`
	Constraints         *Constraints        `json:"constraints,omitempty"`
	Fills               []Paint             `json:"fills,omitempty"`
	ExportSettings      []ExportSetting     `json:"exportSettings,omitempty"`
	FlowStartingPoints  []FlowStartingPoint `json:"flowStartingPoints,omitempty"`
}

// IsVisible reports whether the node is visible (Figma omits the field
// when true).
func (n *Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// ComponentMeta is the file-level metadata of a published component.
type ComponentMeta struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// File is a parsed Figma file response.
type File struct {
	Name         string                   `json:"name"`
	Version      string                   `json:"version"`
	LastModified string                   `json:"lastModified"`
	Document     *Node                    `json:"document"`
	Components   map[string]ComponentMeta `json:"components,omitempty"`
}
