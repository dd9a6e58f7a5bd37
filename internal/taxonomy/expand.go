package taxonomy

import (
	"path"
	"sort"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

// Expand adds a child group for every selected option that has a non-empty
// sub-folder, breadth-first, so selections can reveal groups several levels
// deep. base is not modified. Children never go deeper than the engine's
// depth cap. The result is sorted by depth, then key.
func (e *Engine) Expand(base []types.Group, typeName string, selections types.Selections) []types.Group {
	out := make([]types.Group, len(base))
	copy(out, base)
	if len(selections) == 0 {
		return out
	}

	seen := make(map[string]bool, len(base))
	for _, g := range base {
		seen[g.Key] = true
	}

	queue := make([]types.Group, len(base))
	copy(queue, base)
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]

		sel, ok := selections.Chosen(g.Key)
		if !ok {
			continue
		}
		key := g.Key + "/" + sel
		if seen[key] {
			continue
		}
		if g.Depth()+1 > e.maxDepth {
			e.logger.Debug("child group beyond depth cap", "type", typeName, "key", key, "max_depth", e.maxDepth)
			continue
		}
		child, ok := e.childGroup(typeName, g, sel)
		if !ok {
			continue
		}
		seen[key] = true
		out = append(out, child)
		queue = append(queue, child)
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Depth(), out[j].Depth()
		if di != dj {
			return di < dj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// childGroup loads the options under the selected option of g. It reports
// false when the source kind cannot have children or the folder is empty.
func (e *Engine) childGroup(typeName string, g types.Group, sel string) (types.Group, bool) {
	target, dir, src, ok := e.childLocation(typeName, g, sel)
	if !ok {
		return types.Group{}, false
	}
	opts := e.LoadOptions(target, dir)
	if len(opts) == 0 {
		return types.Group{}, false
	}

	child := types.Group{
		Key:           g.Key + "/" + sel,
		Label:         childLabel(g, sel),
		AllowMultiple: g.AllowMultiple,
		Options:       opts,
		Source:        src,
		ReferTo:       g.ReferTo,
		LinkBiography: g.LinkBiography,
		Origin:        types.OriginChild,
	}
	meta, err := e.store.Read(target, path.Join(dir, types.GroupMetaRecord))
	if err == nil && len(meta) > 0 {
		if def, err := types.DecodeGroupMeta(child.Key, meta); err == nil {
			child.Label = def.Name
			child.Description = def.Description
		}
	}
	return child, true
}

// childLocation returns the type and labels directory holding the children
// of option sel in g, plus the source the child group carries. Entity
// collections never have children. Labels of another type only do when the
// source sets allow_children.
func (e *Engine) childLocation(typeName string, g types.Group, sel string) (string, string, types.SourceSpec, bool) {
	src := g.Source.Normalize(typeName)
	childPath := path.Join(src.LabelPath(g.Key), sel)
	switch src.Kind {
	case types.SourceTypeBiographies:
		return "", "", types.SourceSpec{}, false
	case types.SourceTypeLabels:
		target := src.TargetType(typeName)
		if target != typeName && !src.AllowChildren {
			e.logger.Debug("cross-type children not allowed", "type", typeName, "key", g.Key, "source_type", target)
			return "", "", types.SourceSpec{}, false
		}
		next := src
		next.Path = childPath
		return target, path.Join(types.LabelsDir, childPath), next, true
	default:
		next := types.SourceSpec{Kind: types.SourceFolder, Path: childPath}
		return typeName, path.Join(types.LabelsDir, childPath), next, true
	}
}

func childLabel(g types.Group, sel string) string {
	for _, o := range g.Options {
		if o.ID == sel && o.Display != "" {
			return o.Display
		}
	}
	return types.TitleFromKey(sel)
}
