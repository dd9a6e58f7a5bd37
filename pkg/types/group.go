package types

import "strings"

// Option is one pickable value of a group. ID is unique within its source.
type Option struct {
	ID          string `json:"id" yaml:"id"`
	Display     string `json:"display" yaml:"display"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	ImageRef    string `json:"image,omitempty" yaml:"image,omitempty"`
}

// GroupOrigin records which collection pass produced a group.
type GroupOrigin string

// Group origins.
const (
	OriginProperty GroupOrigin = "property"
	OriginFolder   GroupOrigin = "folder"
	OriginChild    GroupOrigin = "child"
)

// Group is one resolvable label category. Groups are recomputed on every
// resolution and have no identity beyond it. Keys are unique within one
// resolution; nested keys are "/"-joined path segments.
type Group struct {
	Key           string             `json:"key" yaml:"key"`
	Label         string             `json:"label" yaml:"label"`
	Description   string             `json:"description,omitempty" yaml:"description,omitempty"`
	Required      bool               `json:"required,omitempty" yaml:"required,omitempty"`
	AllowMultiple bool               `json:"allow_multiple,omitempty" yaml:"allow_multiple,omitempty"`
	Order         *int               `json:"order,omitempty" yaml:"order,omitempty"`
	Input         *InputSpec         `json:"input,omitempty" yaml:"input,omitempty"`
	Options       []Option           `json:"options" yaml:"options"`
	Source        SourceSpec         `json:"source" yaml:"source"`
	ReferTo       *ReferTo           `json:"refer_to,omitempty" yaml:"refer_to,omitempty"`
	LinkBiography *LinkBiographySpec `json:"link_biography,omitempty" yaml:"link_biography,omitempty"`
	Origin        GroupOrigin        `json:"origin" yaml:"origin"`
}

// Depth is the number of "/" separators in the key.
func (g Group) Depth() int {
	return strings.Count(g.Key, "/")
}

// RootKey returns the first path segment of the key.
func (g Group) RootKey() string {
	if i := strings.Index(g.Key, "/"); i >= 0 {
		return g.Key[:i]
	}
	return g.Key
}

// Selection is the caller's chosen option for one group.
type Selection struct {
	ID         string `json:"id" yaml:"id"`
	Confidence int    `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Selections maps group keys to the caller's choices. The engine never
// mutates it.
type Selections map[string]Selection

// Chosen returns the trimmed option id selected for key. An id that is not
// a single path segment ("", ".", "..", or one holding a separator) counts
// as no selection.
func (s Selections) Chosen(key string) (string, bool) {
	sel, ok := s[key]
	if !ok {
		return "", false
	}
	id := strings.TrimSpace(sel.ID)
	if !isSegment(id) {
		return "", false
	}
	return id, true
}

func isSegment(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// Chain follows selections downward from key: the choice for key, then the
// choice for key+"/"+choice, and so on until no selection remains. The walk
// stops after maxLen ids.
func (s Selections) Chain(key string, maxLen int) []string {
	var chain []string
	cur := key
	for len(chain) < maxLen {
		id, ok := s.Chosen(cur)
		if !ok {
			break
		}
		chain = append(chain, id)
		cur = cur + "/" + id
	}
	return chain
}

// Candidate is one suggested record from another entity collection.
type Candidate struct {
	ID          string `json:"id" yaml:"id"`
	Display     string `json:"display" yaml:"display"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string `json:"type" yaml:"type"`
	Path        string `json:"path" yaml:"path"`
}

// SuggestionMap maps sanitised group keys to ordered candidates. A missing
// key means the same as an empty list.
type SuggestionMap map[string][]Candidate

// KeySeparator replaces "/" in SuggestionMap keys.
const KeySeparator = "__"

// SanitizeKey converts a group key into its SuggestionMap key.
func SanitizeKey(key string) string {
	return strings.ReplaceAll(key, "/", KeySeparator)
}

// For returns the candidates for a group key.
func (m SuggestionMap) For(groupKey string) []Candidate {
	return m[SanitizeKey(groupKey)]
}
