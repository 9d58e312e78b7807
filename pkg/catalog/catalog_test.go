package catalog

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uievolve/uievolve/pkg/errors"
)

func TestSelectorIdentifiable(t *testing.T) {
	tests := []struct {
		name     string
		selector Selector
		want     bool
	}{
		{"id only", Selector{Kind: Button, ID: "submit"}, true},
		{"name only", Selector{Kind: Input, Name: "q"}, true},
		{"class only", Selector{Kind: Link, Class: "nav-item"}, true},
		{"text only", Selector{Kind: Link, Text: "Read more"}, true},
		{"nothing", Selector{Kind: Button}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.selector.Identifiable())
		})
	}
}

func TestSelectorQuery(t *testing.T) {
	tests := []struct {
		name       string
		selector   Selector
		wantQuery  string
		wantSearch bool
	}{
		{"id wins over name", Selector{ID: "submit", Name: "s"}, "#submit", false},
		{"name attribute", Selector{Name: "q"}, `[name="q"]`, false},
		{"multiple classes", Selector{Class: "btn primary"}, ".btn.primary", false},
		{"text falls back to search", Selector{Text: "Sign up"}, "Sign up", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, search := tt.selector.Query()
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantSearch, search)
		})
	}
}

func TestActionString(t *testing.T) {
	fill := Action{Kind: Fill, Target: Selector{Kind: Input, Name: "email"}, Value: "a@b.c"}
	assert.Equal(t, `FILL input[name=email] with "a@b.c"`, fill.String())

	click := Action{Kind: Click, Target: Selector{Kind: Button, ID: "go"}}
	assert.Equal(t, "CLICK button[id=go]", click.String())
}

func TestNewRejectsEmptyCatalog(t *testing.T) {
	cat, err := New(nil)
	assert.Nil(t, cat)
	require.Error(t, err)
	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, errors.InvalidConfig, domainErr.Code())
}

func TestSampleStaysInCatalog(t *testing.T) {
	actions := []Action{
		{Kind: Click, Target: Selector{Kind: Button, ID: "a"}},
		{Kind: Fill, Target: Selector{Kind: Input, Name: "b"}, Value: "x"},
		{Kind: Select, Target: Selector{Kind: Dropdown, ID: "c"}, Value: "1"},
	}
	cat, err := New(actions)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		assert.True(t, cat.Contains(cat.Sample(rng)))
	}
}

func TestSampleKind(t *testing.T) {
	cat, err := New([]Action{
		{Kind: Click, Target: Selector{Kind: Button, ID: "a"}},
		{Kind: Fill, Target: Selector{Kind: Input, Name: "b"}, Value: "x"},
	})
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))

	action, ok := cat.SampleKind(rng, Fill)
	require.True(t, ok)
	assert.Equal(t, Fill, action.Kind)

	_, ok = cat.SampleKind(rng, Scroll)
	assert.False(t, ok)
}

func TestActionsReturnsCopy(t *testing.T) {
	cat, err := New([]Action{{Kind: Click, Target: Selector{Kind: Button, ID: "a"}}})
	require.NoError(t, err)

	actions := cat.Actions()
	actions[0].Target.ID = "tampered"
	assert.Equal(t, "a", cat.Actions()[0].Target.ID)
}

func TestContainsIgnoresValue(t *testing.T) {
	base := Action{Kind: Fill, Target: Selector{Kind: Input, Name: "q"}, Value: "seed"}
	cat, err := New([]Action{base})
	require.NoError(t, err)

	mutated := base
	mutated.Value = "something else"
	assert.True(t, cat.Contains(mutated))
}
