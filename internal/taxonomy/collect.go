package taxonomy

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

// CollectGroups builds the base groups of typeName. Property definitions
// (<type>/labels/<key>.json) come first; every remaining sub-folder of
// <type>/labels becomes a legacy group unless a definition already claimed
// its key. The result is sorted by key.
func (e *Engine) CollectGroups(ctx context.Context, typeName string) []types.Group {
	entries, err := e.store.List(typeName, types.LabelsDir)
	if err != nil {
		e.logger.Warn("listing labels", "type", typeName, "error", err)
		return []types.Group{}
	}

	groups := []types.Group{}
	claimed := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir || !strings.HasSuffix(entry.Name, types.RecordExt) || strings.HasPrefix(entry.Name, "_") {
			continue
		}
		key := strings.TrimSuffix(entry.Name, types.RecordExt)
		if claimed[key] {
			continue
		}
		data, err := e.store.Read(typeName, path.Join(types.LabelsDir, entry.Name))
		if err != nil || data == nil {
			if err != nil {
				e.logger.Warn("reading property definition", "type", typeName, "key", key, "error", err)
			}
			continue
		}
		claimed[key] = true

		def, err := types.DecodePropertyDefinition(key, data)
		if err != nil {
			e.logger.Warn("malformed property definition", "type", typeName, "key", key, "error", err)
			groups = append(groups, types.Group{
				Key:     key,
				Label:   def.Name,
				Options: []types.Option{},
				Source:  types.SourceSpec{Kind: types.SourceNone},
				Origin:  types.OriginProperty,
			})
			continue
		}
		groups = append(groups, e.groupFromDefinition(ctx, typeName, def, types.OriginProperty, ""))
	}

	for _, entry := range entries {
		if !entry.IsDir || strings.HasPrefix(entry.Name, "_") || claimed[entry.Name] {
			continue
		}
		claimed[entry.Name] = true
		groups = append(groups, e.legacyGroup(ctx, typeName, entry.Name))
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// legacyGroup builds the group for a bare label folder, applying its
// optional _group.json metadata.
func (e *Engine) legacyGroup(ctx context.Context, typeName, key string) types.Group {
	def := types.PropertyDefinition{
		Key:    key,
		Name:   types.TitleFromKey(key),
		Source: types.SourceSpec{Kind: types.SourceFolder},
	}
	meta, err := e.store.Read(typeName, path.Join(types.LabelsDir, key, types.GroupMetaRecord))
	if err != nil {
		e.logger.Warn("reading group metadata", "type", typeName, "key", key, "error", err)
	}
	if len(meta) > 0 {
		decoded, err := types.DecodeGroupMeta(key, meta)
		if err != nil {
			e.logger.Warn("malformed group metadata", "type", typeName, "key", key, "error", err)
		} else {
			def = decoded
		}
	}
	return e.groupFromDefinition(ctx, typeName, def, types.OriginFolder, "")
}

// groupFromDefinition resolves a definition's options and input control.
// A sourceless definition gets a text input unless it declares one; select
// inputs expose their choices as options.
func (e *Engine) groupFromDefinition(ctx context.Context, typeName string, def types.PropertyDefinition, origin types.GroupOrigin, search string) types.Group {
	src := def.Source.Normalize(typeName)
	g := types.Group{
		Key:           def.Key,
		Label:         def.Name,
		Description:   def.Description,
		Required:      def.Required,
		AllowMultiple: def.AllowMultiple,
		Order:         def.Order,
		Input:         def.Input,
		Source:        src,
		ReferTo:       def.ReferTo,
		LinkBiography: def.LinkBiography,
		Origin:        origin,
	}
	if src.Kind == types.SourceNone {
		if g.Input == nil {
			g.Input = &types.InputSpec{Kind: types.InputText}
		}
		g.Options = []types.Option{}
		if g.Input.Kind == types.InputSelect {
			g.Options = append(g.Options, g.Input.Choices...)
		}
		return g
	}
	g.Options = e.Resolve(ctx, typeName, src, def.Key, search)
	return g
}
