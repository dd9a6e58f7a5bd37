package taxonomy

import (
	"context"
	"strings"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

// Location names the group that can select an option. ParentID and ChildID
// are set when the option lives in a child group.
type Location struct {
	GroupKey string `json:"group_key" yaml:"group_key"`
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	ChildID  string `json:"child_id,omitempty" yaml:"child_id,omitempty"`
}

// LocateOption finds the group of typeName offering optionID, matching ids
// case-insensitively. Top-level groups are searched first, then the
// one-level child folders under each of their options, following the same
// rules Expand uses for cross-type sources.
func (e *Engine) LocateOption(ctx context.Context, typeName, optionID string) (Location, bool) {
	want := strings.ToLower(strings.TrimSpace(optionID))
	if want == "" {
		return Location{}, false
	}
	groups := e.CollectGroups(ctx, typeName)

	for _, g := range groups {
		for _, o := range g.Options {
			if strings.ToLower(o.ID) == want {
				return Location{GroupKey: g.Key}, true
			}
		}
	}

	for _, g := range groups {
		if g.Source.Kind == types.SourceNone {
			continue
		}
		for _, parent := range g.Options {
			target, dir, _, ok := e.childLocation(typeName, g, parent.ID)
			if !ok {
				break
			}
			for _, child := range e.LoadOptions(target, dir) {
				if strings.ToLower(child.ID) == want {
					return Location{
						GroupKey: g.Key + "/" + parent.ID,
						ParentID: parent.ID,
						ChildID:  child.ID,
					}, true
				}
			}
		}
	}
	return Location{}, false
}
