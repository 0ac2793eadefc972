package scene

import (
	"testing"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/classify"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/figma"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/layout"
)

func TestFindMissingComponentIDs(t *testing.T) {
	doc := &figma.Node{
		ID: "0:0", Type: figma.NodeDocument,
		Children: []*figma.Node{
			{
				ID: "1:1", Type: figma.NodeCanvas,
				Children: []*figma.Node{
					{ID: "2:1", Type: figma.NodeComponent},
					{ID: "3:1", Type: figma.NodeInstance, ComponentID: "2:1"},
					{ID: "3:2", Type: figma.NodeInstance, ComponentID: "gone"},
				},
			},
		},
	}
	idx := figma.BuildIndex(doc)

	missing := FindMissingComponentIDs(idx)
	if len(missing) != 1 || !missing["gone"] {
		t.Errorf("missing = %v, want {gone}", missing)
	}
}

func TestPromoteMissingComponents(t *testing.T) {
	doc := &figma.Node{
		ID: "0:0", Type: figma.NodeDocument,
		Children: []*figma.Node{
			{
				ID: "1:1", Type: figma.NodeCanvas,
				Children: []*figma.Node{
					{ID: "3:1", Name: "Chip", Type: figma.NodeInstance, ComponentID: "gone"},
					{ID: "3:2", Name: "Chip", Type: figma.NodeInstance, ComponentID: "gone"},
				},
			},
		},
	}
	idx := figma.BuildIndex(doc)

	promoted := PromoteMissingComponents(idx, map[string]bool{"gone": true})
	if promoted["gone"] != "3:1" {
		t.Fatalf("promoted = %v, want gone -> 3:1 (first in document order)", promoted)
	}

	first, _ := idx.Lookup("3:1")
	second, _ := idx.Lookup("3:2")

	if first.Type != figma.NodeComponent {
		t.Errorf("first instance type = %v, want COMPONENT", first.Type)
	}
	if second.Type != figma.NodeInstance || second.ComponentID != "3:1" {
		t.Errorf("second instance = %+v, want instance referencing 3:1", second)
	}

	// Exactly one promotion.
	count := 0
	figma.Walk(idx.Root(), func(n *figma.Node) bool {
		if n.Type == figma.NodeComponent {
			count++
		}
		return true
	})
	if count != 1 {
		t.Errorf("component definitions = %d, want 1", count)
	}
}

func TestPromoteNothingWhenNoneMissing(t *testing.T) {
	doc := &figma.Node{ID: "0:0", Type: figma.NodeDocument}
	idx := figma.BuildIndex(doc)

	if got := PromoteMissingComponents(idx, nil); got != nil {
		t.Errorf("promoted = %v, want nil", got)
	}
}

// expansionFixture builds a document with a component definition and a
// placed instance whose children override the definition's.
func expansionFixture() (*figma.Index, *classify.Result, *figma.Node) {
	m := figma.Matrix{{1, 0, 5}, {0, 1, 5}}
	override := figma.Matrix{{1, 0, 42}, {0, 1, 7}}
	doc := &figma.Node{
		ID: "0:0", Type: figma.NodeDocument,
		Children: []*figma.Node{
			{
				ID: "1:1", Type: figma.NodeCanvas,
				Children: []*figma.Node{
					{
						ID: "4:1", Name: "Card", Type: figma.NodeComponent,
						Size: &figma.Vector{X: 100, Y: 100},
						Children: []*figma.Node{
							{ID: "5:1", Name: "Body", Type: figma.NodeText,
								Characters:        "default",
								RelativeTransform: &m,
								Size:              &figma.Vector{X: 80, Y: 20}},
						},
					},
					{
						ID: "2:1", Name: "Home", Type: figma.NodeFrame,
						Size: &figma.Vector{X: 375, Y: 812},
						Children: []*figma.Node{
							{
								ID: "3:1", Name: "Card", Type: figma.NodeInstance,
								ComponentID:       "4:1",
								RelativeTransform: &m,
								Size:              &figma.Vector{X: 100, Y: 100},
								Children: []*figma.Node{
									{ID: "I3:1;5:1", Name: "Body", Type: figma.NodeText,
										Characters:        "overridden",
										RelativeTransform: &override,
										Size:              &figma.Vector{X: 80, Y: 20}},
								},
							},
						},
					},
				},
			},
		},
	}
	idx := figma.BuildIndex(doc)
	res := classify.New(nil, nil).Classify(doc)
	return idx, res, doc
}

func TestExpandInstance(t *testing.T) {
	idx, res, doc := expansionFixture()
	g := &Generator{Index: idx, Result: res, Opts: layout.Options{}}

	lib := g.ComponentLibrary(doc)
	screens := g.Screens(doc.Children[0])
	if len(screens) != 1 {
		t.Fatalf("screens = %d, want 1", len(screens))
	}
	root := screens[0]

	e := &Expander{Index: idx, Library: lib, Tags: res.Tags, Opts: layout.Options{}}
	e.ExpandLibrary()
	e.Expand(root)

	card := root.FindChild("Card")
	if card == nil {
		t.Fatal("expanded tree missing card instance")
	}
	if card.Placeholder() {
		t.Error("placeholder not cleared after expansion")
	}
	if len(card.Children) != 1 {
		t.Fatalf("card children = %d, want 1", len(card.Children))
	}

	body := card.Children[0]
	// Namespaced id matched by suffix after the last ';' and rewritten to
	// the instance-scoped id.
	if body.NodeID != "I3:1;5:1" {
		t.Errorf("body id = %q, want instance-scoped id", body.NodeID)
	}
	if got := body.ComponentOfKind(KindText).String("characters"); got != "overridden" {
		t.Errorf("body text = %q, want instance override", got)
	}
	if body.Transform.AnchoredPosition.X != 42 {
		t.Errorf("body position = %+v, want overridden x=42", body.Transform.AnchoredPosition)
	}
}

func TestExpandMissingDefinitionIsSkipped(t *testing.T) {
	root := &Node{NodeID: "r", Name: "Root"}
	inst := &Node{NodeID: "i", Name: "Lost", ComponentRef: "nowhere"}
	inst.MarkPlaceholder()
	root.Children = []*Node{inst}

	idx := figma.BuildIndex(&figma.Node{ID: "0:0", Type: figma.NodeDocument})
	e := &Expander{Index: idx, Library: Library{}, Tags: map[string]classify.Tag{}}
	e.Expand(root)

	if inst.Placeholder() {
		t.Error("placeholder should be cleared even when definition is missing")
	}
	if len(inst.Children) != 0 {
		t.Error("missing definition must not produce children")
	}
}

func TestIDSuffix(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"5:1", "5:1"},
		{"I3:1;5:1", "5:1"},
		{"I2:9;I3:1;5:1", "5:1"},
	}
	for _, tt := range tests {
		if got := idSuffix(tt.id); got != tt.want {
			t.Errorf("idSuffix(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
