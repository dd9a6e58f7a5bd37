package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// LinkMode controls which candidate directory a link target lists.
type LinkMode string

// Link modes. An empty or unknown mode behaves as LinkChildOrParent.
const (
	LinkChildOnly     LinkMode = "child_only"
	LinkParentOnly    LinkMode = "parent_only"
	LinkChildOrParent LinkMode = "child_or_parent"
)

// LinkBiographySpec points a group's selections at another type's entity
// collection.
type LinkBiographySpec struct {
	Type string   `json:"type" yaml:"type"`
	Path string   `json:"path,omitempty" yaml:"path,omitempty"`
	Mode LinkMode `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// EffectiveMode returns Mode, defaulting to LinkChildOrParent.
func (l LinkBiographySpec) EffectiveMode() LinkMode {
	switch l.Mode {
	case LinkChildOnly, LinkParentOnly:
		return l.Mode
	default:
		return LinkChildOrParent
	}
}

// ReferTo marks a group whose options refer to another collection.
type ReferTo struct {
	Source string `json:"source" yaml:"source"`
	Type   string `json:"type" yaml:"type"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ReferToBiographies is the ReferTo source that drives suggestions.
const ReferToBiographies = "biographies"

// InputKind is the data-entry control a sourceless group asks for.
type InputKind string

// Input kinds. Any other kind decodes to InputText.
const (
	InputText     InputKind = "text"
	InputTextarea InputKind = "textarea"
	InputDate     InputKind = "date"
	InputNumber   InputKind = "number"
	InputEmail    InputKind = "email"
	InputTel      InputKind = "tel"
	InputMonth    InputKind = "month"
	InputDatetime InputKind = "datetime"
	InputSelect   InputKind = "select"
)

var validInputKinds = map[InputKind]bool{
	InputText: true, InputTextarea: true, InputDate: true, InputNumber: true,
	InputEmail: true, InputTel: true, InputMonth: true, InputDatetime: true,
	InputSelect: true,
}

// InputSpec describes a data-entry control.
type InputSpec struct {
	Kind        InputKind `json:"kind" yaml:"kind"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	MinLength   *int      `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength   *int      `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern     string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Choices     []Option  `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// UnmarshalJSON accepts "kind" or "type" for the control kind and plain
// strings or objects for select choices.
func (in *InputSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind        string          `json:"kind"`
		Type        string          `json:"type"`
		Placeholder string          `json:"placeholder"`
		MinLength   *int            `json:"min_length"`
		MaxLength   *int            `json:"max_length"`
		Pattern     string          `json:"pattern"`
		Choices     json.RawMessage `json:"choices"`
		Options     json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind := InputKind(strings.ToLower(strings.TrimSpace(firstNonEmpty(raw.Kind, raw.Type))))
	if !validInputKinds[kind] {
		kind = InputText
	}
	*in = InputSpec{
		Kind:        kind,
		Placeholder: raw.Placeholder,
		MinLength:   raw.MinLength,
		MaxLength:   raw.MaxLength,
		Pattern:     raw.Pattern,
	}
	choices := raw.Choices
	if len(choices) == 0 {
		choices = raw.Options
	}
	if len(choices) > 0 {
		items, err := DecodeItems(choices)
		if err != nil {
			return err
		}
		in.Choices = items
	}
	return nil
}

// PropertyDefinition is one authored group declaration of a type.
type PropertyDefinition struct {
	Key           string             `json:"key" yaml:"key"`
	Name          string             `json:"name" yaml:"name"`
	Description   string             `json:"description,omitempty" yaml:"description,omitempty"`
	Required      bool               `json:"required,omitempty" yaml:"required,omitempty"`
	AllowMultiple bool               `json:"allow_multiple,omitempty" yaml:"allow_multiple,omitempty"`
	Order         *int               `json:"order,omitempty" yaml:"order,omitempty"`
	Source        SourceSpec         `json:"source" yaml:"source"`
	LinkBiography *LinkBiographySpec `json:"link_biography,omitempty" yaml:"link_biography,omitempty"`
	ReferTo       *ReferTo           `json:"refer_to,omitempty" yaml:"refer_to,omitempty"`
	Input         *InputSpec         `json:"input,omitempty" yaml:"input,omitempty"`
}

// rawDefinition is the authored shape of a property definition or a
// folder's _group.json. Name and description may live under "properties".
type rawDefinition struct {
	Name          string             `json:"name"`
	Label         string             `json:"label"`
	Description   string             `json:"description"`
	Required      bool               `json:"required"`
	AllowMultiple *bool              `json:"allow_multiple"`
	Multiple      bool               `json:"multiple"`
	Order         *int               `json:"order"`
	Source        json.RawMessage    `json:"source"`
	Options       json.RawMessage    `json:"options"`
	LinkBiography *LinkBiographySpec `json:"link_biography"`
	ReferTo       *ReferTo           `json:"refer_to"`
	Input         *InputSpec         `json:"input"`
	Properties    struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"properties"`
}

// DecodePropertyDefinition decodes the record stored for key. A payload that
// is a bare JSON array is an inline definition. A definition without a
// source block reads options from the folder named after its key, unless
// it declares an input control, in which case its source is SourceNone.
//
// On error the returned definition is still usable: it carries the key, a
// title-cased name and a SourceNone source.
func DecodePropertyDefinition(key string, data []byte) (PropertyDefinition, error) {
	return decodeDefinition(key, data, false)
}

// DecodeGroupMeta decodes a legacy folder's _group.json. The folder itself
// stays the option source unless the metadata declares another one; an
// input block here only adds a control.
func DecodeGroupMeta(key string, data []byte) (PropertyDefinition, error) {
	def, err := decodeDefinition(key, data, true)
	if err != nil {
		def.Source = SourceSpec{Kind: SourceFolder}
	}
	return def, err
}

func decodeDefinition(key string, data []byte, folderDefault bool) (PropertyDefinition, error) {
	def := PropertyDefinition{
		Key:    key,
		Name:   TitleFromKey(key),
		Source: SourceSpec{Kind: SourceNone},
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		items, err := DecodeItems(data)
		if err != nil {
			return def, fmt.Errorf("property %q: %w", key, err)
		}
		def.Source = SourceSpec{Kind: SourceInline, Items: items}
		return def, nil
	}

	var raw rawDefinition
	if err := json.Unmarshal(data, &raw); err != nil {
		return def, fmt.Errorf("property %q: %w: %v", key, ErrMalformedRecord, err)
	}

	if name := firstNonEmpty(raw.Name, raw.Label, raw.Properties.Name); name != "" {
		def.Name = name
	}
	def.Description = firstNonEmpty(raw.Description, raw.Properties.Description)
	def.Required = raw.Required
	def.AllowMultiple = raw.Multiple
	if raw.AllowMultiple != nil {
		def.AllowMultiple = *raw.AllowMultiple
	}
	def.Order = raw.Order
	def.LinkBiography = cleanLink(raw.LinkBiography)
	def.ReferTo = cleanReferTo(raw.ReferTo)
	def.Input = raw.Input

	spec, declared, err := DecodeSourceSpec(raw.Source)
	if err != nil {
		return def, fmt.Errorf("property %q: %w", key, err)
	}
	switch {
	case declared:
		def.Source = spec
	case len(raw.Options) > 0:
		items, err := DecodeItems(raw.Options)
		if err != nil {
			return def, fmt.Errorf("property %q: %w", key, err)
		}
		def.Source = SourceSpec{Kind: SourceInline, Items: items}
	case raw.Input != nil && !folderDefault:
		def.Source = SourceSpec{Kind: SourceNone}
	default:
		def.Source = SourceSpec{Kind: SourceFolder}
	}
	return def, nil
}

func cleanLink(l *LinkBiographySpec) *LinkBiographySpec {
	if l == nil || strings.TrimSpace(l.Type) == "" {
		return nil
	}
	out := *l
	out.Type = strings.TrimSpace(out.Type)
	out.Path = strings.Trim(strings.TrimSpace(out.Path), "/")
	out.Mode = out.EffectiveMode()
	return &out
}

func cleanReferTo(r *ReferTo) *ReferTo {
	if r == nil || strings.TrimSpace(r.Type) == "" {
		return nil
	}
	out := *r
	out.Source = strings.ToLower(strings.TrimSpace(out.Source))
	out.Type = strings.TrimSpace(out.Type)
	out.Path = strings.Trim(strings.TrimSpace(out.Path), "/")
	return &out
}

// TitleFromKey turns "work_place" or "eye-colour" into "Work Place" /
// "Eye Colour".
func TitleFromKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		key = key[i+1:]
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
