package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestIndexByID(t *testing.T) {
	items := []Cause{{ID: "a"}, {ID: "b"}, {ID: "b"}}

	assert.Equal(t, 1, IndexByID(items, "b"), "first match wins")
	assert.Equal(t, -1, IndexByID(items, "z"))

	c, ok := FindByID(items, "a")
	assert.True(t, ok)
	assert.Equal(t, "a", c.ID)

	_, ok = FindByID(items, "z")
	assert.False(t, ok)
}

func TestFilter_NeverNil(t *testing.T) {
	out := Filter([]Effect(nil), func(Effect) bool { return true })
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRemoveIf(t *testing.T) {
	items := []Control{{ID: "a", FailureModeID: "f1"}, {ID: "b", FailureModeID: "f2"}, {ID: "c", FailureModeID: "f1"}}

	kept, removed := RemoveIf(items, func(c Control) bool { return c.FailureModeID == "f1" })

	assert.Equal(t, 2, removed)
	require.Len(t, kept, 1)
	assert.Equal(t, "b", kept[0].ID)

	kept, removed = RemoveIf(kept, func(Control) bool { return true })
	assert.Equal(t, 1, removed)
	assert.NotNil(t, kept)
	assert.Empty(t, kept)
}

func TestGraphOf(t *testing.T) {
	doc := NewDocument()
	doc.Causes = []Cause{{ID: "c1", FailureModeID: "f1"}, {ID: "c2", FailureModeID: "f2"}}
	doc.Effects = []Effect{{ID: "e1", FailureModeID: "f1"}}
	doc.Actions = []Action{{ID: "a1", FailureModeID: "f2"}}

	g := GraphOf(doc, FailureMode{ID: "f1"})

	assert.Len(t, g.Causes, 1)
	assert.Len(t, g.Effects, 1)
	assert.Empty(t, g.Controls)
	assert.Empty(t, g.Actions)
}

func TestProjectFailureModeIDs(t *testing.T) {
	doc := NewDocument()
	doc.Components = []Component{{ID: "c1", ProjectID: "p1"}, {ID: "c2", ProjectID: "p2"}}
	doc.FailureModes = []FailureMode{
		{ID: "direct", ProjectID: "p1"},
		{ID: "via-component", ComponentID: "c1"},
		{ID: "other", ComponentID: "c2", ProjectID: "p2"},
	}

	ids := ProjectFailureModeIDs(doc, "p1")

	assert.True(t, ids.Has("direct"))
	assert.True(t, ids.Has("via-component"))
	assert.False(t, ids.Has("other"))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Acme Corp":         "acme-corp",
		"  Café  Works!! ":  "cafe-works",
		"Plant #3 / Line-2": "plant-3-line-2",
		"":                  "org",
		"***":               "org",
		"Zürich Hydro AG":   "zurich-hydro-ag",
	}
	for input, want := range tests {
		assert.Equal(t, want, Slugify(input), "Slugify(%q)", input)
	}
}

func TestNewID_SortsInCreationOrder(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		assert.Less(t, prev, next)
		prev = next
	}
	assert.Len(t, prev, 26)
}

func TestNewToken_Unique(t *testing.T) {
	assert.NotEqual(t, NewToken(), NewToken())
}
