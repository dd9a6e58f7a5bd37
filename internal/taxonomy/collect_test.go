package taxonomy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taxon/internal/memstore"
	"github.com/mesh-intelligence/taxon/pkg/types"
)

func collectFixture(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	put(t, s, "person", "labels/eye_colour.json", `{"name": "Eye colour", "required": true, "order": 2}`)
	put(t, s, "person", "labels/eye_colour/blue.json", `{}`)
	put(t, s, "person", "labels/birth_date.json", `{"name": "Born", "input": {"type": "date"}}`)
	put(t, s, "person", "labels/blood.json", `{"name": "Blood", "input": {"kind": "select", "choices": ["A", "B"]}}`)
	put(t, s, "person", "labels/languages.json", `["English", "French"]`)
	put(t, s, "person", "labels/broken.json", `{oops`)
	put(t, s, "person", "labels/_schema.json", `{"ignored": true}`)
	put(t, s, "person", "labels/hobby/chess.json", `{}`)
	put(t, s, "person", "labels/sport/_group.json", `{"name": "Sports", "description": "Played", "required": true, "input": {"kind": "text"}}`)
	put(t, s, "person", "labels/sport/rowing.json", `{}`)
	put(t, s, "person", "labels/pets/_group.json", `{"source": {"kind": "self_labels", "path": "animals"}}`)
	put(t, s, "person", "labels/animals/cat.json", `{}`)
	put(t, s, "person", "labels/_drafts/idea.json", `{}`)
	return s
}

func TestCollectGroupsKeysAndOrder(t *testing.T) {
	e := newEngine(t, collectFixture(t), types.Config{})

	groups := e.CollectGroups(context.Background(), "person")

	assert.Equal(t, []string{
		"animals", "birth_date", "blood", "broken", "eye_colour",
		"hobby", "languages", "pets", "sport",
	}, groupKeys(groups))
}

func TestCollectGroupsPropertyPass(t *testing.T) {
	e := newEngine(t, collectFixture(t), types.Config{})
	groups := e.CollectGroups(context.Background(), "person")

	eye := findGroup(t, groups, "eye_colour")
	assert.Equal(t, types.OriginProperty, eye.Origin)
	assert.True(t, eye.Required)
	require.NotNil(t, eye.Order)
	assert.Equal(t, 2, *eye.Order)
	assert.Equal(t, []string{"blue"}, optionIDs(eye.Options))
	assert.Nil(t, eye.Input)

	born := findGroup(t, groups, "birth_date")
	assert.Equal(t, types.SourceNone, born.Source.Kind)
	require.NotNil(t, born.Input)
	assert.Equal(t, types.InputDate, born.Input.Kind)
	assert.Empty(t, born.Options)

	blood := findGroup(t, groups, "blood")
	require.NotNil(t, blood.Input)
	assert.Equal(t, types.InputSelect, blood.Input.Kind)
	assert.Equal(t, []string{"A", "B"}, optionIDs(blood.Options))

	langs := findGroup(t, groups, "languages")
	assert.Equal(t, types.SourceInline, langs.Source.Kind)
	assert.Equal(t, []string{"English", "French"}, optionIDs(langs.Options))
}

func TestCollectGroupsMalformedDefinitionDegrades(t *testing.T) {
	e := newEngine(t, collectFixture(t), types.Config{})
	groups := e.CollectGroups(context.Background(), "person")

	broken := findGroup(t, groups, "broken")
	assert.Equal(t, "Broken", broken.Label)
	assert.NotNil(t, broken.Options)
	assert.Empty(t, broken.Options)
	assert.Nil(t, broken.Input)
}

func TestCollectGroupsLegacyPass(t *testing.T) {
	e := newEngine(t, collectFixture(t), types.Config{})
	groups := e.CollectGroups(context.Background(), "person")

	hobby := findGroup(t, groups, "hobby")
	assert.Equal(t, types.OriginFolder, hobby.Origin)
	assert.Equal(t, "Hobby", hobby.Label)
	assert.Equal(t, types.SourceFolder, hobby.Source.Kind)
	assert.Equal(t, []string{"chess"}, optionIDs(hobby.Options))

	sport := findGroup(t, groups, "sport")
	assert.Equal(t, "Sports", sport.Label)
	assert.Equal(t, "Played", sport.Description)
	assert.True(t, sport.Required)
	assert.Equal(t, types.SourceFolder, sport.Source.Kind, "an input override keeps the folder as source")
	require.NotNil(t, sport.Input)
	assert.Equal(t, types.InputText, sport.Input.Kind)
	assert.Equal(t, []string{"rowing"}, optionIDs(sport.Options))

	pets := findGroup(t, groups, "pets")
	assert.Equal(t, types.SourceTypeLabels, pets.Source.Kind)
	assert.Equal(t, "person", pets.Source.Type)
	assert.Equal(t, []string{"cat"}, optionIDs(pets.Options))
}

func TestCollectGroupsNoDuplicateKeys(t *testing.T) {
	e := newEngine(t, collectFixture(t), types.Config{})
	groups := e.CollectGroups(context.Background(), "person")

	seen := map[string]bool{}
	for _, g := range groups {
		assert.False(t, seen[g.Key], "duplicate key %q", g.Key)
		seen[g.Key] = true
	}
	assert.Equal(t, types.OriginProperty, findGroup(t, groups, "eye_colour").Origin)
}

func TestCollectGroupsMissingType(t *testing.T) {
	e := newEngine(t, memstore.New(), types.Config{})

	groups := e.CollectGroups(context.Background(), "ghost")

	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}
