// Package merge reconciles a freshly generated scene tree against a
// backed-up prior tree, preserving manual additions and field overrides
// made on the previous generation.
package merge

import (
	"go.uber.org/zap"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/logging"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/metrics"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/scene"
)

// Merger merges backup trees into fresh trees. Assets is the component
// library of the current generation, used to re-instantiate preserved
// children that are instances of a reusable component.
type Merger struct {
	Assets scene.Library
}

// Merge reconciles fresh against backup in place and returns the plan.
// A nil backup leaves fresh untouched: everything is a creation. No
// failure inside the merge is fatal; problems are logged and the
// affected field or node is skipped.
func (m *Merger) Merge(fresh, backup *scene.Node) *Plan {
	plan := &Plan{}
	if fresh == nil {
		return plan
	}
	if backup == nil {
		plan.add(ActionCreate, fresh.Name, fresh.Name)
		return plan
	}

	m.mergeNode(fresh, backup, fresh.Name, plan)
	return plan
}

// mergeNode merges one paired node: components first, then children.
func (m *Merger) mergeNode(fresh, backup *scene.Node, path string, plan *Plan) {
	plan.add(ActionUpdate, path, fresh.Name)

	mergeComponents(fresh, backup, path)
	m.mergeChildren(fresh, backup, path, plan)
}

// mergeComponents copies backup components the fresh node lacks, and for
// shared kinds fills only fields still holding their default value. The
// regeneration's own values always win.
func mergeComponents(fresh, backup *scene.Node, path string) {
	for _, bc := range backup.Components {
		fc := fresh.ComponentOfKind(bc.Kind)
		if fc == nil {
			fresh.AttachComponent(bc.Clone())
			continue
		}
		for key, bv := range bc.Fields {
			fv, present := fc.Fields[key]
			if present && !scene.IsZeroValue(fv) {
				continue
			}
			if !copyField(fc, key, bv) {
				logging.Warn("field copy failed, skipping",
					zap.String("path", path),
					zap.String("kind", bc.Kind),
					zap.String("field", key))
			}
		}
	}
}

// copyField copies a single backup value into a component field.
// Returns false when the value cannot be represented; the failure stays
// local to this field.
func copyField(dst *scene.Component, key string, v any) bool {
	switch v.(type) {
	case nil, string, float64, int, bool, map[string]any, []any:
		dst.Set(key, cloneFieldValue(v))
		return true
	}
	return false
}

func cloneFieldValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneFieldValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneFieldValue(e)
		}
		return s
	default:
		return v
	}
}

// mergeChildren pairs children by exact name, recurses into pairs, and
// reattaches backup-only children at their original sibling index. Fresh
// children a first-generation import produced are creations.
func (m *Merger) mergeChildren(fresh, backup *scene.Node, path string, plan *Plan) {
	paired := make(map[*scene.Node]bool)

	for _, fc := range fresh.Children {
		bc := matchChild(backup.Children, fc.Name, paired)
		if bc == nil {
			plan.add(ActionCreate, childPath(path, fc.Name), fc.Name)
			continue
		}
		paired[bc] = true
		m.mergeNode(fc, bc, childPath(path, fc.Name), plan)
	}

	for i, bc := range backup.Children {
		if paired[bc] {
			continue
		}
		m.preserveChild(fresh, bc, i, childPath(path, bc.Name), plan)
	}
}

// matchChild finds the first not-yet-paired backup child with the name.
func matchChild(children []*scene.Node, name string, paired map[*scene.Node]bool) *scene.Node {
	for _, c := range children {
		if c.Name == name && !paired[c] {
			return c
		}
	}
	return nil
}

// preserveChild reattaches a backup-only child to the fresh tree at the
// backup's original sibling index. An instance of a reusable component is
// re-instantiated from the current library so it picks up the regenerated
// definition; anything else is deep-copied verbatim. An instance whose
// asset no longer exists is dropped and recorded as a removal.
func (m *Merger) preserveChild(fresh *scene.Node, bc *scene.Node, index int, path string, plan *Plan) {
	var attached *scene.Node

	if bc.ComponentRef != "" {
		def, ok := m.Assets[bc.ComponentRef]
		if !ok {
			logging.Warn("preserved child references a missing component asset, dropping",
				zap.String("path", path),
				zap.String("component_ref", bc.ComponentRef))
			plan.add(ActionRemove, path, bc.Name)
			return
		}
		attached = instantiateAsset(bc, def)
	} else {
		attached = bc.Clone()
	}

	fresh.InsertChild(index, attached)
	plan.add(ActionPreserve, path, bc.Name)
	logging.Info("preserved manually added child",
		zap.String("path", path),
		zap.String("name", bc.Name))
}

// instantiateAsset builds a fresh instance of a component asset carrying
// the backup's identity, placement and field overrides.
func instantiateAsset(bc *scene.Node, def *scene.Node) *scene.Node {
	inst := def.Clone()
	inst.NodeID = bc.NodeID
	inst.Name = bc.Name
	inst.ComponentRef = bc.ComponentRef
	inst.Transform = bc.Transform
	mergeComponents(inst, bc, bc.Name)
	return inst
}

func childPath(parent, name string) string {
	return parent + "/" + name
}

// add appends a plan entry and records the action metric.
func (p *Plan) add(action Action, path, name string) {
	p.Entries = append(p.Entries, PlanEntry{Action: action, Path: path, Name: name})
	metrics.RecordMergeAction(action.String())
}
