// Package catalog defines the action model for a target page: the atomic
// UI operations discovered by the crawler and sampled by the engine when
// constructing and mutating chromosomes.
package catalog

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/uievolve/uievolve/pkg/errors"
)

// ActionKind identifies the type of UI interaction.
type ActionKind string

const (
	Click  ActionKind = "click"
	Fill   ActionKind = "fill"
	Select ActionKind = "select"
	Scroll ActionKind = "scroll"
)

// ElementKind identifies the type of a targetable UI element.
type ElementKind string

const (
	Button   ElementKind = "button"
	Input    ElementKind = "input"
	Link     ElementKind = "link"
	Dropdown ElementKind = "dropdown"
)

// Selector describes a targetable UI element. Attributes are ordered by
// stability: an id survives page changes better than a name, a name better
// than a class, and visible text is the last resort.
type Selector struct {
	Kind  ElementKind
	ID    string
	Name  string
	Class string
	Text  string
}

// Identifiable reports whether the selector carries at least one attribute
// that can locate the element.
func (s Selector) Identifiable() bool {
	return s.ID != "" || s.Name != "" || s.Class != "" || s.Text != ""
}

// Query returns the lookup expression for the element and whether it must
// be resolved with a DOM text search instead of a CSS query. The most
// stable available attribute wins.
func (s Selector) Query() (query string, textSearch bool) {
	switch {
	case s.ID != "":
		return "#" + cssEscape(s.ID), false
	case s.Name != "":
		return fmt.Sprintf("[name=%q]", s.Name), false
	case s.Class != "":
		return "." + strings.Join(strings.Fields(cssEscape(s.Class)), "."), false
	default:
		return s.Text, true
	}
}

// String renders the selector for logs and run summaries. These are not
// lookup expressions; Query produces those.
func (s Selector) String() string {
	switch {
	case s.ID != "":
		return fmt.Sprintf("%s[id=%s]", s.Kind, s.ID)
	case s.Name != "":
		return fmt.Sprintf("%s[name=%s]", s.Kind, s.Name)
	case s.Class != "":
		return fmt.Sprintf("%s[class=%s]", s.Kind, s.Class)
	case s.Text != "":
		text := s.Text
		if len(text) > 15 {
			text = text[:15] + "..."
		}
		return fmt.Sprintf("%s[text=%s]", s.Kind, text)
	}
	return fmt.Sprintf("%s[unknown]", s.Kind)
}

func cssEscape(v string) string {
	return strings.NewReplacer(`"`, `\"`, `'`, `\'`).Replace(v)
}

// Action is an immutable atomic UI operation: an interaction kind, the
// element it targets and an optional value (for fill and select).
type Action struct {
	Kind   ActionKind
	Target Selector
	Value  string
}

func (a Action) String() string {
	switch a.Kind {
	case Fill, Select:
		return fmt.Sprintf("%s %s with %q", strings.ToUpper(string(a.Kind)), a.Target, a.Value)
	default:
		return fmt.Sprintf("%s %s", strings.ToUpper(string(a.Kind)), a.Target)
	}
}

// Equal reports structural equality of two actions.
func (a Action) Equal(other Action) bool {
	return a == other
}

// Catalog is the non-empty set of candidate actions discovered for a
// target page. It is read-only after construction and safe to share
// across concurrent evaluations.
type Catalog struct {
	actions []Action
}

// New builds a catalog from the given actions. An empty catalog is a
// configuration error; it is detected here, before any execution starts.
func New(actions []Action) (*Catalog, error) {
	if len(actions) == 0 {
		return nil, errors.New(errors.InvalidConfig, "action catalog is empty; nothing to evolve")
	}
	owned := make([]Action, len(actions))
	copy(owned, actions)
	return &Catalog{actions: owned}, nil
}

// Len returns the number of candidate actions.
func (c *Catalog) Len() int {
	return len(c.actions)
}

// Actions returns a copy of the candidate actions.
func (c *Catalog) Actions() []Action {
	out := make([]Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// Sample draws one action uniformly at random.
func (c *Catalog) Sample(rng *rand.Rand) Action {
	return c.actions[rng.Intn(len(c.actions))]
}

// SampleKind draws a random action of the given kind. The second return
// value is false when the catalog holds no action of that kind.
func (c *Catalog) SampleKind(rng *rand.Rand, kind ActionKind) (Action, bool) {
	matching := make([]Action, 0, len(c.actions))
	for _, a := range c.actions {
		if a.Kind == kind {
			matching = append(matching, a)
		}
	}
	if len(matching) == 0 {
		return Action{}, false
	}
	return matching[rng.Intn(len(matching))], true
}

// Contains reports whether the action is one of the catalog's candidates,
// ignoring the value (values are free to vary under mutation).
func (c *Catalog) Contains(a Action) bool {
	for _, candidate := range c.actions {
		if candidate.Kind == a.Kind && candidate.Target == a.Target {
			return true
		}
	}
	return false
}
