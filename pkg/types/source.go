package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SourceKind names the variant of a SourceSpec.
type SourceKind string

// Source kinds. Any other declared kind decodes to SourceNone.
const (
	SourceFolder          SourceKind = "folder"
	SourceTypeLabels      SourceKind = "type_labels"
	SourceSelfLabels      SourceKind = "self_labels"
	SourceTypeBiographies SourceKind = "type_biographies"
	SourceInline          SourceKind = "inline"
	SourceExternalAPI     SourceKind = "external_api"
	SourceNone            SourceKind = "none"
)

// SourceSpec says where a property's options come from. Only the fields of
// the active Kind are meaningful:
//
//	folder            Path
//	type_labels       Type, Path, AllowChildren
//	self_labels       Path, AllowChildren
//	type_biographies  Type, Path
//	inline            Items
//	external_api      API
type SourceSpec struct {
	Kind          SourceKind       `json:"kind" yaml:"kind"`
	Type          string           `json:"type,omitempty" yaml:"type,omitempty"`
	Path          string           `json:"path,omitempty" yaml:"path,omitempty"`
	AllowChildren bool             `json:"allow_children,omitempty" yaml:"allow_children,omitempty"`
	Items         []Option         `json:"items,omitempty" yaml:"items,omitempty"`
	API           *ExternalAPISpec `json:"api,omitempty" yaml:"api,omitempty"`
}

// ExternalAPISpec configures one HTTP call that yields options.
type ExternalAPISpec struct {
	Endpoint      string            `json:"endpoint" yaml:"endpoint"`
	Method        string            `json:"method,omitempty" yaml:"method,omitempty"`
	HeadersEnv    string            `json:"headers_env,omitempty" yaml:"headers_env,omitempty"`
	QueryTemplate string            `json:"query_template,omitempty" yaml:"query_template,omitempty"`
	BodyTemplate  string            `json:"body_template,omitempty" yaml:"body_template,omitempty"`
	ListPath      string            `json:"list_path,omitempty" yaml:"list_path,omitempty"`
	FieldMap      map[string]string `json:"field_map,omitempty" yaml:"field_map,omitempty"`
}

// Field map keys understood by the external API mapper.
const (
	FieldID          = "id"
	FieldDisplay     = "display"
	FieldDescription = "description"
	FieldImage       = "image"
)

// defaultFieldMap is applied for keys missing from ExternalAPISpec.FieldMap.
var defaultFieldMap = map[string]string{
	FieldID:          "id",
	FieldDisplay:     "name",
	FieldDescription: "description",
	FieldImage:       "image_url",
}

// Field returns the response field name mapped to key.
func (s ExternalAPISpec) Field(key string) string {
	if f := strings.TrimSpace(s.FieldMap[key]); f != "" {
		return f
	}
	return defaultFieldMap[key]
}

// HTTPMethod returns the upper-cased method, GET unless POST is declared.
func (s ExternalAPISpec) HTTPMethod() string {
	if strings.EqualFold(strings.TrimSpace(s.Method), "POST") {
		return "POST"
	}
	return "GET"
}

// rawSource is the authored shape of a source block. It accepts the
// {"source": "labels"|"biographies", ...} spelling used by older records.
type rawSource struct {
	Kind          string            `json:"kind"`
	Source        string            `json:"source"`
	Type          string            `json:"type"`
	Path          string            `json:"path"`
	AllowChildren bool              `json:"allow_children"`
	Items         json.RawMessage   `json:"items"`
	Options       json.RawMessage   `json:"options"`
	Endpoint      string            `json:"endpoint"`
	URL           string            `json:"url"`
	Method        string            `json:"method"`
	HeadersEnv    string            `json:"headers_env"`
	QueryTemplate string            `json:"query_template"`
	BodyTemplate  string            `json:"body_template"`
	ListPath      string            `json:"list_path"`
	FieldMap      map[string]string `json:"field_map"`
}

// DecodeSourceSpec decodes an authored source block. An unknown kind decodes
// to SourceNone. An empty or null payload returns ok=false so callers can
// apply their own default.
func DecodeSourceSpec(data json.RawMessage) (spec SourceSpec, ok bool, err error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return SourceSpec{}, false, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		items, err := DecodeItems(data)
		if err != nil {
			return SourceSpec{Kind: SourceNone}, true, err
		}
		return SourceSpec{Kind: SourceInline, Items: items}, true, nil
	}

	var raw rawSource
	if err := json.Unmarshal(data, &raw); err != nil {
		return SourceSpec{Kind: SourceNone}, true, fmt.Errorf("%w: source: %v", ErrMalformedRecord, err)
	}

	kind := SourceKind(strings.ToLower(strings.TrimSpace(raw.Kind)))
	if kind == "" {
		switch strings.ToLower(strings.TrimSpace(raw.Source)) {
		case "labels":
			kind = SourceTypeLabels
		case "biographies":
			kind = SourceTypeBiographies
		case "folder":
			kind = SourceFolder
		}
	}

	spec = SourceSpec{
		Type:          strings.TrimSpace(raw.Type),
		Path:          strings.Trim(strings.TrimSpace(raw.Path), "/"),
		AllowChildren: raw.AllowChildren,
	}

	switch kind {
	case SourceFolder, SourceSelfLabels, SourceTypeBiographies:
		spec.Kind = kind
	case SourceTypeLabels:
		spec.Kind = kind
		if spec.Type == "" {
			// type_labels without a type behaves like self_labels.
			spec.Kind = SourceSelfLabels
		}
	case SourceInline:
		spec.Kind = kind
		payload := raw.Items
		if len(payload) == 0 {
			payload = raw.Options
		}
		if len(payload) > 0 {
			items, err := DecodeItems(payload)
			if err != nil {
				return spec, true, err
			}
			spec.Items = items
		}
	case SourceExternalAPI:
		spec.Kind = kind
		endpoint := raw.Endpoint
		if endpoint == "" {
			endpoint = raw.URL
		}
		spec.API = &ExternalAPISpec{
			Endpoint:      strings.TrimSpace(endpoint),
			Method:        raw.Method,
			HeadersEnv:    strings.TrimSpace(raw.HeadersEnv),
			QueryTemplate: raw.QueryTemplate,
			BodyTemplate:  raw.BodyTemplate,
			ListPath:      strings.TrimSpace(raw.ListPath),
			FieldMap:      raw.FieldMap,
		}
	default:
		spec = SourceSpec{Kind: SourceNone}
	}
	return spec, true, nil
}

// Normalize rewrites self_labels into type_labels pointing at currentType.
// Other kinds are returned unchanged.
func (s SourceSpec) Normalize(currentType string) SourceSpec {
	if s.Kind != SourceSelfLabels {
		return s
	}
	s.Kind = SourceTypeLabels
	s.Type = currentType
	return s
}

// TargetType returns the type whose labels back this source, defaulting to
// currentType for same-type kinds.
func (s SourceSpec) TargetType(currentType string) string {
	switch s.Kind {
	case SourceTypeLabels, SourceTypeBiographies:
		if s.Type != "" {
			return s.Type
		}
	}
	return currentType
}

// LabelPath returns the source path, or key when no path is declared.
func (s SourceSpec) LabelPath(key string) string {
	if s.Path != "" {
		return s.Path
	}
	return key
}

// DecodeItems decodes an inline item list. Items may be plain strings or
// objects with id/display/description/image fields.
func DecodeItems(data json.RawMessage) ([]Option, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: items: %v", ErrMalformedRecord, err)
	}
	items := make([]Option, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			s = strings.TrimSpace(s)
			if s != "" {
				items = append(items, Option{ID: s, Display: s})
			}
			continue
		}
		var obj struct {
			ID          string `json:"id"`
			Display     string `json:"display"`
			Label       string `json:"label"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Image       string `json:"image"`
			ImageURL    string `json:"image_url"`
		}
		if err := json.Unmarshal(r, &obj); err != nil {
			return nil, fmt.Errorf("%w: item: %v", ErrMalformedRecord, err)
		}
		opt := Option{
			ID:          strings.TrimSpace(obj.ID),
			Display:     firstNonEmpty(obj.Display, obj.Label, obj.Name),
			Description: obj.Description,
			ImageRef:    firstNonEmpty(obj.Image, obj.ImageURL),
		}
		if opt.ID == "" {
			opt.ID = opt.Display
		}
		if opt.ID == "" {
			continue
		}
		if opt.Display == "" {
			opt.Display = opt.ID
		}
		items = append(items, opt)
	}
	return items, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
