package taxonomy

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

// Resolve turns a normalised source into options for the group key. When a
// declared source yields nothing, the folder literally named after key is
// tried as well. SourceNone never falls back.
func (e *Engine) Resolve(ctx context.Context, currentType string, src types.SourceSpec, key, search string) []types.Option {
	src = src.Normalize(currentType)
	opts, loadedDir := e.resolveDeclared(ctx, currentType, src, key, search)
	if len(opts) > 0 || src.Kind == types.SourceNone {
		return opts
	}
	fallback := path.Join(types.LabelsDir, key)
	if loadedDir == fallback {
		return opts
	}
	return e.LoadOptions(currentType, fallback)
}

// resolveDeclared returns the options of src and, for folder-backed kinds on
// the current type, the directory it read.
func (e *Engine) resolveDeclared(ctx context.Context, currentType string, src types.SourceSpec, key, search string) ([]types.Option, string) {
	switch src.Kind {
	case types.SourceFolder, types.SourceTypeLabels:
		target := src.TargetType(currentType)
		dir := path.Join(types.LabelsDir, src.LabelPath(key))
		opts := e.LoadOptions(target, dir)
		if target != currentType {
			return opts, ""
		}
		return opts, dir
	case types.SourceTypeBiographies:
		return e.biographyOptions(src.TargetType(currentType), src.Path), ""
	case types.SourceInline:
		out := make([]types.Option, len(src.Items))
		copy(out, src.Items)
		return out, ""
	case types.SourceExternalAPI:
		return e.fetchExternal(ctx, src.API, search), ""
	default:
		return []types.Option{}, ""
	}
}

// biographyOptions lists one option per entity of typeName. A path narrows
// the listing to records directly under that sub-folder.
func (e *Engine) biographyOptions(typeName, sub string) []types.Option {
	if sub == "" {
		entities, err := e.store.Entities(typeName)
		if err != nil {
			e.logger.Warn("listing entities", "type", typeName, "error", err)
			return []types.Option{}
		}
		opts := make([]types.Option, 0, len(entities))
		for _, ent := range entities {
			opts = append(opts, types.Option{
				ID:          ent.ID,
				Display:     displayOf(ent.Record, ent.ID),
				Description: descriptionOf(ent.Record),
				ImageRef:    stringField(ent.Record, "image", "image_url"),
			})
		}
		sortOptions(opts)
		return opts
	}

	cands := e.listCandidates(typeName, path.Join(types.BiographiesDir, sub))
	opts := make([]types.Option, 0, len(cands))
	for _, c := range cands {
		opts = append(opts, types.Option{ID: c.ID, Display: c.Display, Description: c.Description})
	}
	sortOptions(opts)
	return opts
}

// ResolveOptions resolves the options of a single group key of typeName,
// passing search through to external API sources. The key may name a
// property definition or a legacy label folder. The boolean reports whether
// the key exists at all.
func (e *Engine) ResolveOptions(ctx context.Context, typeName, key, search string) ([]types.Option, bool) {
	key = strings.Trim(key, "/")
	if key == "" {
		return []types.Option{}, false
	}
	data, err := e.store.Read(typeName, path.Join(types.LabelsDir, key+types.RecordExt))
	if err != nil {
		e.logger.Warn("reading property definition", "type", typeName, "key", key, "error", err)
	}
	if len(data) > 0 {
		def, err := types.DecodePropertyDefinition(key, data)
		if err != nil {
			e.logger.Warn("malformed property definition", "type", typeName, "key", key, "error", err)
			return []types.Option{}, true
		}
		g := e.groupFromDefinition(ctx, typeName, def, types.OriginProperty, search)
		return filterSearch(g.Options, def.Source.Kind, search), true
	}

	entries, err := e.store.List(typeName, path.Join(types.LabelsDir, key))
	if err != nil || len(entries) == 0 {
		return []types.Option{}, false
	}
	return filterSearch(e.LoadOptions(typeName, path.Join(types.LabelsDir, key)), types.SourceFolder, search), true
}

// filterSearch narrows locally resolved options to those whose id or display
// contains search. External API results are already filtered remotely.
func filterSearch(opts []types.Option, kind types.SourceKind, search string) []types.Option {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" || kind == types.SourceExternalAPI {
		return opts
	}
	out := make([]types.Option, 0, len(opts))
	for _, o := range opts {
		if strings.Contains(strings.ToLower(o.ID), search) || strings.Contains(strings.ToLower(o.Display), search) {
			out = append(out, o)
		}
	}
	return out
}

// listCandidates reads the records directly under dir of typeName as
// candidates, sorted by lower-cased display then id.
func (e *Engine) listCandidates(typeName, dir string) []types.Candidate {
	entries, err := e.store.List(typeName, dir)
	if err != nil {
		e.logger.Warn("listing records", "type", typeName, "dir", dir, "error", err)
		return nil
	}
	var out []types.Candidate
	for _, entry := range entries {
		if entry.IsDir || !strings.HasSuffix(entry.Name, types.RecordExt) || strings.HasPrefix(entry.Name, "_") {
			continue
		}
		out = append(out, e.candidate(typeName, path.Join(dir, entry.Name)))
	}
	sortCandidates(out)
	return out
}

func (e *Engine) candidate(typeName, p string) types.Candidate {
	id := strings.TrimSuffix(path.Base(p), types.RecordExt)
	rec := e.readRecord(typeName, p)
	return types.Candidate{
		ID:          id,
		Display:     displayOf(rec, id),
		Description: descriptionOf(rec),
		Type:        typeName,
		Path:        p,
	}
}

func sortCandidates(c []types.Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		di, dj := strings.ToLower(c[i].Display), strings.ToLower(c[j].Display)
		if di != dj {
			return di < dj
		}
		return strings.ToLower(c[i].ID) < strings.ToLower(c[j].ID)
	})
}
