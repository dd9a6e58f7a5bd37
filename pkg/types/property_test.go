package types

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodePropertyDefinitionSource(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantKind SourceKind
		wantName string
	}{
		{"no source reads the key folder", `{"name": "Eye colour"}`, SourceFolder, "Eye colour"},
		{"input without source has no options", `{"input": {"type": "date"}}`, SourceNone, "Birth Date"},
		{"bare array is inline", `["A+", "O-"]`, SourceInline, "Birth Date"},
		{"options array is inline", `{"options": ["a", "b"]}`, SourceInline, "Birth Date"},
		{"declared source wins over options", `{"source": {"kind": "folder", "path": "x"}, "options": ["a"]}`, SourceFolder, "Birth Date"},
		{"label alias", `{"label": "Born"}`, SourceFolder, "Born"},
		{"nested properties name", `{"properties": {"name": "Born on"}}`, SourceFolder, "Born on"},
		{"unknown kind decodes to none", `{"source": {"kind": "ldap"}}`, SourceNone, "Birth Date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := DecodePropertyDefinition("birth_date", []byte(tt.data))
			if err != nil {
				t.Fatalf("DecodePropertyDefinition: %v", err)
			}
			if def.Source.Kind != tt.wantKind {
				t.Errorf("Source.Kind = %q, want %q", def.Source.Kind, tt.wantKind)
			}
			if def.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", def.Name, tt.wantName)
			}
			if def.Key != "birth_date" {
				t.Errorf("Key = %q, want birth_date", def.Key)
			}
		})
	}
}

func TestDecodePropertyDefinitionFields(t *testing.T) {
	data := `{
		"name": "Work place",
		"description": "Where they work",
		"required": true,
		"multiple": true,
		"order": 2,
		"source": {"kind": "self_labels", "path": "/work_place/", "allow_children": true},
		"link_biography": {"type": " organisations ", "path": "/work_place", "mode": "bogus"},
		"refer_to": {"source": "Biographies", "type": "organisations", "path": "units/"}
	}`
	def, err := DecodePropertyDefinition("work_place", []byte(data))
	if err != nil {
		t.Fatalf("DecodePropertyDefinition: %v", err)
	}
	if !def.Required || !def.AllowMultiple {
		t.Errorf("Required/AllowMultiple = %v/%v, want true/true", def.Required, def.AllowMultiple)
	}
	if def.Order == nil || *def.Order != 2 {
		t.Errorf("Order = %v, want 2", def.Order)
	}
	wantSource := SourceSpec{Kind: SourceSelfLabels, Path: "work_place", AllowChildren: true}
	if !reflect.DeepEqual(def.Source, wantSource) {
		t.Errorf("Source = %+v, want %+v", def.Source, wantSource)
	}
	wantLink := &LinkBiographySpec{Type: "organisations", Path: "work_place", Mode: LinkChildOrParent}
	if !reflect.DeepEqual(def.LinkBiography, wantLink) {
		t.Errorf("LinkBiography = %+v, want %+v", def.LinkBiography, wantLink)
	}
	wantRefer := &ReferTo{Source: ReferToBiographies, Type: "organisations", Path: "units"}
	if !reflect.DeepEqual(def.ReferTo, wantRefer) {
		t.Errorf("ReferTo = %+v, want %+v", def.ReferTo, wantRefer)
	}
}

func TestDecodePropertyDefinitionAllowMultipleOverridesMultiple(t *testing.T) {
	def, err := DecodePropertyDefinition("k", []byte(`{"multiple": true, "allow_multiple": false}`))
	if err != nil {
		t.Fatalf("DecodePropertyDefinition: %v", err)
	}
	if def.AllowMultiple {
		t.Error("AllowMultiple = true, want false")
	}
}

func TestDecodePropertyDefinitionDropsIncompleteLinks(t *testing.T) {
	def, err := DecodePropertyDefinition("k", []byte(`{"link_biography": {"path": "x"}, "refer_to": {"source": "biographies"}}`))
	if err != nil {
		t.Fatalf("DecodePropertyDefinition: %v", err)
	}
	if def.LinkBiography != nil {
		t.Errorf("LinkBiography = %+v, want nil", def.LinkBiography)
	}
	if def.ReferTo != nil {
		t.Errorf("ReferTo = %+v, want nil", def.ReferTo)
	}
}

func TestDecodePropertyDefinitionMalformed(t *testing.T) {
	def, err := DecodePropertyDefinition("blood_type", []byte(`{"name": `))
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("error = %v, want ErrMalformedRecord", err)
	}
	if def.Key != "blood_type" || def.Name != "Blood Type" || def.Source.Kind != SourceNone {
		t.Errorf("fallback definition = %+v", def)
	}
}

func TestDecodeGroupMeta(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantKind SourceKind
		wantErr  bool
	}{
		{"name only keeps the folder", `{"name": "Hobbies"}`, SourceFolder, false},
		{"input keeps the folder", `{"input": {"type": "text"}}`, SourceFolder, false},
		{"declared source is honoured", `{"source": {"kind": "type_labels", "type": "places"}}`, SourceTypeLabels, false},
		{"malformed falls back to the folder", `{`, SourceFolder, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := DecodeGroupMeta("hobby", []byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if def.Source.Kind != tt.wantKind {
				t.Errorf("Source.Kind = %q, want %q", def.Source.Kind, tt.wantKind)
			}
		})
	}
}

func TestInputSpecUnmarshal(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantKind    InputKind
		wantChoices []string
	}{
		{"kind field", `{"kind": "date"}`, InputDate, nil},
		{"type alias", `{"type": "EMAIL"}`, InputEmail, nil},
		{"unknown kind is text", `{"type": "colour"}`, InputText, nil},
		{"select with string choices", `{"type": "select", "choices": ["S", "M"]}`, InputSelect, []string{"S", "M"}},
		{"select with options alias", `{"type": "select", "options": [{"id": "s", "label": "Small"}]}`, InputSelect, []string{"s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in InputSpec
			if err := in.UnmarshalJSON([]byte(tt.data)); err != nil {
				t.Fatalf("UnmarshalJSON: %v", err)
			}
			if in.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", in.Kind, tt.wantKind)
			}
			var ids []string
			for _, c := range in.Choices {
				ids = append(ids, c.ID)
			}
			if !reflect.DeepEqual(ids, tt.wantChoices) {
				t.Errorf("choices = %v, want %v", ids, tt.wantChoices)
			}
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode LinkMode
		want LinkMode
	}{
		{"", LinkChildOrParent},
		{"sideways", LinkChildOrParent},
		{LinkChildOnly, LinkChildOnly},
		{LinkParentOnly, LinkParentOnly},
		{LinkChildOrParent, LinkChildOrParent},
	}
	for _, tt := range tests {
		if got := (LinkBiographySpec{Mode: tt.mode}).EffectiveMode(); got != tt.want {
			t.Errorf("EffectiveMode(%q) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestTitleFromKey(t *testing.T) {
	tests := map[string]string{
		"work_place":          "Work Place",
		"eye-colour":          "Eye Colour",
		"work_place/hospital": "Hospital",
		"royal_victoria":      "Royal Victoria",
		"":                    "",
	}
	for in, want := range tests {
		if got := TitleFromKey(in); got != want {
			t.Errorf("TitleFromKey(%q) = %q, want %q", in, got, want)
		}
	}
}
