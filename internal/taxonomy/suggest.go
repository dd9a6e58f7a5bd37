package taxonomy

import (
	"path"
	"strings"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

// Suggest resolves candidate records for groups that link into another
// entity collection. Only the deepest expanded group along a selection path
// is answered: a group whose selected child group is present defers to it.
// Groups without candidates are absent from the map.
func (e *Engine) Suggest(typeName string, groups []types.Group, selections types.Selections) types.SuggestionMap {
	present := make(map[string]bool, len(groups))
	for _, g := range groups {
		present[g.Key] = true
	}

	out := types.SuggestionMap{}
	for _, g := range groups {
		refersToEntities := g.ReferTo != nil && g.ReferTo.Source == types.ReferToBiographies
		if g.LinkBiography == nil && !refersToEntities {
			continue
		}
		if sel, ok := selections.Chosen(g.Key); ok && present[g.Key+"/"+sel] {
			continue
		}

		var cands []types.Candidate
		if g.LinkBiography != nil {
			chain := selections.Chain(g.RootKey(), e.maxDepth+1)
			cands = e.linkCandidates(*g.LinkBiography, chain)
		} else {
			cands = e.referCandidates(*g.ReferTo)
		}
		cands = dedupCandidates(cands)
		if len(cands) == 0 {
			continue
		}
		sortCandidates(cands)
		out[types.SanitizeKey(g.Key)] = cands
	}
	e.logger.Debug("suggestions resolved", "type", typeName, "groups", len(out))
	return out
}

// linkCandidates lists the link target scoped by the selection chain.
func (e *Engine) linkCandidates(link types.LinkBiographySpec, chain []string) []types.Candidate {
	root := path.Join(types.BiographiesDir, link.Path)
	if len(chain) == 0 {
		return e.listCandidates(link.Type, root)
	}
	child := path.Join(append([]string{root}, chain...)...)
	parent := path.Join(root, chain[0])

	switch link.EffectiveMode() {
	case types.LinkChildOnly:
		return e.listCandidates(link.Type, child)
	case types.LinkParentOnly:
		return e.listCandidates(link.Type, parent)
	default:
		if cands := e.listCandidates(link.Type, child); len(cands) > 0 {
			return cands
		}
		return e.listCandidates(link.Type, parent)
	}
}

// referCandidates walks every record beneath the referenced collection path.
func (e *Engine) referCandidates(ref types.ReferTo) []types.Candidate {
	pattern := path.Join(types.BiographiesDir, escapeGlob(ref.Path), "**", "*"+types.RecordExt)
	matches, err := e.store.Glob(ref.Type, pattern)
	if err != nil {
		e.logger.Warn("walking referenced collection", "type", ref.Type, "path", ref.Path, "error", err)
		return nil
	}
	out := make([]types.Candidate, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(path.Base(m), "_") {
			continue
		}
		out = append(out, e.candidate(ref.Type, m))
	}
	return out
}

func dedupCandidates(in []types.Candidate) []types.Candidate {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, c := range in {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// escapeGlob quotes doublestar metacharacters in a literal path.
func escapeGlob(p string) string {
	var b strings.Builder
	for _, r := range p {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
