package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument_AllCollectionsEmpty(t *testing.T) {
	doc := NewDocument()

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Len(t, raw, len(Collections))
	for _, name := range Collections {
		assert.JSONEq(t, `[]`, string(raw[name]), "collection %s", name)
	}
}

func TestBackfill_AddsOnlyMissingCollections(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"users":[{"id":"u1","email":"a@example.com"}],"projects":[]}`), &doc))

	added := doc.Backfill()

	assert.NotContains(t, added, CollectionUsers)
	assert.NotContains(t, added, CollectionProjects)
	assert.Contains(t, added, CollectionActions)
	assert.Len(t, added, len(Collections)-2)
	require.Len(t, doc.Users, 1)
	assert.Equal(t, "u1", doc.Users[0].ID)
	assert.NotNil(t, doc.Actions)

	// Second pass is a no-op.
	assert.Empty(t, doc.Backfill())
}

func TestCounts(t *testing.T) {
	doc := NewDocument()
	doc.Causes = append(doc.Causes, Cause{ID: "c1"}, Cause{ID: "c2"})

	counts := doc.Counts()
	assert.Equal(t, 2, counts[CollectionCauses])
	assert.Equal(t, 0, counts[CollectionUsers])
	assert.Len(t, counts, len(Collections))
}

func TestSessionExpired(t *testing.T) {
	now := mustTime(t, "2026-01-01T12:00:00Z")
	assert.True(t, Session{ExpiresAt: now}.Expired(now))
	assert.True(t, Session{ExpiresAt: now.Add(-1)}.Expired(now))
	assert.False(t, Session{ExpiresAt: now.Add(1)}.Expired(now))
}

func TestDocument_KeepsUnmodeledData(t *testing.T) {
	input := `{
		"projects": [
			{"id": "p1", "name": "Pump", "tags": ["x"]},
			{"id": "p2", "name": "Valve"}
		],
		"notifications": [{"id": "n1", "text": "hello"}],
		"schema_note": "v9"
	}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(input), &doc))
	doc.Backfill()
	assert.Equal(t, []string{"notifications", "schema_note"}, doc.Unmodeled())

	doc.Projects[1].Name = "Check valve"
	doc.Projects = append(doc.Projects, Project{ID: "p3", Name: "Motor"})

	data, err := json.Marshal(&doc)
	require.NoError(t, err)

	var out struct {
		Projects      []map[string]any `json:"projects"`
		Notifications json.RawMessage  `json:"notifications"`
		SchemaNote    string           `json:"schema_note"`
		Users         json.RawMessage  `json:"users"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.JSONEq(t, `[{"id":"n1","text":"hello"}]`, string(out.Notifications))
	assert.Equal(t, "v9", out.SchemaNote)
	assert.JSONEq(t, `[]`, string(out.Users))
	require.Len(t, out.Projects, 3)
	assert.Equal(t, []any{"x"}, out.Projects[0]["tags"])
	assert.Equal(t, "Check valve", out.Projects[1]["name"])
	assert.NotContains(t, out.Projects[1], "tags")
	assert.NotContains(t, out.Projects[2], "tags")

	// A second decode and encode is stable.
	var again Document
	require.NoError(t, json.Unmarshal(data, &again))
	data2, err := json.Marshal(again)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(data2))
}

func TestDocument_DeletedRecordDropsItsExtraFields(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"tools":[{"id":"t1","vendor":"acme"}]}`), &doc))
	doc.Backfill()
	doc.Tools = doc.Tools[:0]

	data, err := json.Marshal(&doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "acme")
}

func TestDocument_ModeledOnlyEncodingUnchanged(t *testing.T) {
	doc := NewDocument()
	doc.Users = append(doc.Users, User{ID: "u1", Email: "a@example.com"})

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, doc, &decoded)
	assert.Empty(t, decoded.Unmodeled())
}
