package merge

import (
	"reflect"
	"testing"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/scene"
)

func node(id, name string, children ...*scene.Node) *scene.Node {
	return &scene.Node{NodeID: id, Name: name, Children: children}
}

func withComponent(n *scene.Node, kind string, fields map[string]any) *scene.Node {
	c := scene.NewComponent(kind)
	for k, v := range fields {
		c.Set(k, v)
	}
	n.AttachComponent(c)
	return n
}

func freshTree() *scene.Node {
	return node("2:1", "Home",
		node("3:1", "Title"),
		node("3:2", "Body"),
	)
}

func TestMergeWithNilBackupLeavesFreshUnchanged(t *testing.T) {
	fresh := freshTree()
	want := fresh.Clone()

	m := &Merger{Assets: scene.Library{}}
	plan := m.Merge(fresh, nil)

	if !reflect.DeepEqual(fresh, want) {
		t.Errorf("fresh tree changed: %+v", fresh)
	}
	if plan.Count(ActionCreate) != 1 || len(plan.Entries) != 1 {
		t.Errorf("plan = %+v, want a single create entry", plan.Entries)
	}
}

func TestMergeReattachesBackupOnlyChildAtIndex(t *testing.T) {
	fresh := freshTree()
	backup := node("2:1", "Home",
		node("3:1", "Title"),
		node("9:9", "Manual Banner"), // added by hand after the last import
		node("3:2", "Body"),
	)

	m := &Merger{Assets: scene.Library{}}
	plan := m.Merge(fresh, backup)

	if len(fresh.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(fresh.Children))
	}
	if fresh.Children[1].Name != "Manual Banner" {
		t.Errorf("child order = %v, want manual child at original index 1",
			childNames(fresh))
	}
	if plan.Count(ActionPreserve) != 1 {
		t.Errorf("preserve count = %d, want 1", plan.Count(ActionPreserve))
	}
}

func TestMergeIdempotent(t *testing.T) {
	fresh := freshTree()
	backup := node("2:1", "Home",
		node("3:1", "Title"),
		node("9:9", "Manual Banner"),
		node("3:2", "Body"),
	)

	m := &Merger{Assets: scene.Library{}}
	m.Merge(fresh, backup)
	once := fresh.Clone()

	// Second pass against the merged result itself: a no-op.
	m.Merge(fresh, once)
	if !reflect.DeepEqual(fresh, once) {
		t.Errorf("second merge changed the tree:\n got %+v\nwant %+v", fresh, once)
	}
}

func TestMergeCopiesComponentFieldsOnlyIntoDefaults(t *testing.T) {
	fresh := withComponent(node("3:1", "Title"), scene.KindText, map[string]any{
		"characters": "Generated",
		"size":       0.0, // default, open for backfill
	})
	backup := withComponent(node("3:1", "Title"), scene.KindText, map[string]any{
		"characters": "Hand-edited",
		"size":       24.0,
		"font":       "Inter",
	})

	m := &Merger{Assets: scene.Library{}}
	m.Merge(fresh, backup)

	text := fresh.ComponentOfKind(scene.KindText)
	if got := text.String("characters"); got != "Generated" {
		t.Errorf("characters = %q, generated value must win", got)
	}
	if got := text.Float("size"); got != 24.0 {
		t.Errorf("size = %v, want backfilled 24", got)
	}
	if got := text.String("font"); got != "Inter" {
		t.Errorf("font = %q, want backfilled Inter", got)
	}
}

func TestMergeAddsBackupOnlyComponent(t *testing.T) {
	fresh := node("3:1", "Title")
	backup := withComponent(node("3:1", "Title"), scene.KindBackground, map[string]any{
		"color": "#112233FF",
	})

	m := &Merger{Assets: scene.Library{}}
	m.Merge(fresh, backup)

	bg := fresh.ComponentOfKind(scene.KindBackground)
	if bg == nil || bg.String("color") != "#112233FF" {
		t.Errorf("background component = %+v, want copied from backup", bg)
	}

	// The copy must be independent of the backup.
	bg.Set("color", "#000000FF")
	if backup.ComponentOfKind(scene.KindBackground).String("color") != "#112233FF" {
		t.Error("merged component aliases the backup")
	}
}

func TestPreservedInstanceReinstantiatedFromAssets(t *testing.T) {
	def := node("4:1", "Card", node("5:1", "Body"))
	assets := scene.Library{"4:1": def}

	fresh := node("2:1", "Home")
	manual := node("9:1", "My Card")
	manual.ComponentRef = "4:1"
	backup := node("2:1", "Home", manual)

	m := &Merger{Assets: assets}
	plan := m.Merge(fresh, backup)

	if len(fresh.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(fresh.Children))
	}
	inst := fresh.Children[0]
	if inst.Name != "My Card" || inst.ComponentRef != "4:1" {
		t.Errorf("instance = %+v, want backup identity kept", inst)
	}
	// Children come from the current definition, not the stale backup.
	if len(inst.Children) != 1 || inst.Children[0].Name != "Body" {
		t.Errorf("instance children = %v, want regenerated definition content", childNames(inst))
	}
	if plan.Count(ActionPreserve) != 1 {
		t.Errorf("preserve count = %d, want 1", plan.Count(ActionPreserve))
	}
}

func TestPreservedInstanceWithMissingAssetIsRemoved(t *testing.T) {
	fresh := node("2:1", "Home")
	manual := node("9:1", "My Card")
	manual.ComponentRef = "gone"
	backup := node("2:1", "Home", manual)

	m := &Merger{Assets: scene.Library{}}
	plan := m.Merge(fresh, backup)

	if len(fresh.Children) != 0 {
		t.Errorf("children = %v, want none", childNames(fresh))
	}
	if plan.Count(ActionRemove) != 1 {
		t.Errorf("remove count = %d, want 1", plan.Count(ActionRemove))
	}
}

func TestMergeRecursesIntoPairedChildren(t *testing.T) {
	freshDeep := withComponent(node("3:1", "Title"), scene.KindText, map[string]any{
		"characters": "",
	})
	fresh := node("2:1", "Home", freshDeep)

	backupDeep := withComponent(node("3:1", "Title"), scene.KindText, map[string]any{
		"characters": "Kept",
	})
	backup := node("2:1", "Home", backupDeep)

	m := &Merger{Assets: scene.Library{}}
	m.Merge(fresh, backup)

	if got := freshDeep.ComponentOfKind(scene.KindText).String("characters"); got != "Kept" {
		t.Errorf("nested characters = %q, want backfilled from backup", got)
	}
}

func TestDuplicateNamesPairInOrder(t *testing.T) {
	fresh := node("2:1", "Home",
		node("f1", "Item"),
		node("f2", "Item"),
	)
	backup := node("2:1", "Home",
		withComponent(node("b1", "Item"), scene.KindText, map[string]any{"characters": "one"}),
		withComponent(node("b2", "Item"), scene.KindText, map[string]any{"characters": "two"}),
	)

	m := &Merger{Assets: scene.Library{}}
	m.Merge(fresh, backup)

	if got := fresh.Children[0].ComponentOfKind(scene.KindText).String("characters"); got != "one" {
		t.Errorf("first pairing = %q, want one", got)
	}
	if got := fresh.Children[1].ComponentOfKind(scene.KindText).String("characters"); got != "two" {
		t.Errorf("second pairing = %q, want two", got)
	}
}

func childNames(n *scene.Node) []string {
	var names []string
	for _, c := range n.Children {
		names = append(names, c.Name)
	}
	return names
}
