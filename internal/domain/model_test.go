package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimestamp_NaiveServerDatetime(t *testing.T) {
	var ev DomainEvent
	err := json.Unmarshal([]byte(`{
		"id": "7", "aggregate_type": "document", "aggregate_id": "3",
		"event_type": "DocumentUpdated", "payload": {"content": "C"},
		"metadata": {}, "created_at": "2025-03-01T10:15:30.123456"
	}`), &ev)
	require.NoError(t, err)
	require.Equal(t, 2025, ev.CreatedAt.Year())
	require.Equal(t, time.March, ev.CreatedAt.Month())
	require.True(t, ev.IsUpdate())
	require.False(t, ev.IsCreate())
}

func TestTimestamp_RFC3339AndNull(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-01T10:15:30Z"`), &ts))
	require.Equal(t, 10, ts.Hour())

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	require.True(t, ts.IsZero())

	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestContextState_Valid(t *testing.T) {
	p := &Project{ID: 1, Name: "Umowa"}
	f := &ProjectFile{ID: 10, Filename: "umowa.pdf"}

	require.True(t, ContextState{}.Valid())
	require.True(t, ContextState{Contact: "ACME"}.Valid())
	require.True(t, ContextState{Contact: "ACME", Project: p, File: f}.Valid())
	require.False(t, ContextState{Project: p}.Valid())
	require.False(t, ContextState{Contact: "ACME", File: f}.Valid())
}

func TestContextState_CloneIsDeep(t *testing.T) {
	s := ContextState{
		Contact:  "ACME",
		Project:  &Project{ID: 1, Name: "Umowa", Files: []ProjectFile{{ID: 10}}},
		Channels: []Channel{{ID: "b2b", Name: "B2B"}},
	}
	c := s.Clone()
	c.Project.Name = "changed"
	c.Project.Files[0].ID = 99
	c.Channels[0].ID = "vat"

	require.Equal(t, "Umowa", s.Project.Name)
	require.Equal(t, int64(10), s.Project.Files[0].ID)
	require.Equal(t, "b2b", s.Channels[0].ID)
}

func TestContextState_Path(t *testing.T) {
	s := ContextState{
		Contact: "ACME",
		Project: &Project{Name: "Umowa"},
		File:    &ProjectFile{Filename: "umowa.pdf"},
	}
	require.Equal(t, "👤 ACME → 📁 Umowa → 📄 umowa.pdf", s.Path())
	require.Equal(t, "", ContextState{}.Path())
}

func TestLookupChannel(t *testing.T) {
	c, ok := LookupChannel("vat")
	require.True(t, ok)
	require.Equal(t, "VAT", c.Name)

	c, ok = LookupChannel("general")
	require.True(t, ok)
	require.Equal(t, GeneralChannel, c.ID)

	_, ok = LookupChannel("crypto")
	require.False(t, ok)
}

func TestQuickQuestionsReferenceKnownChannels(t *testing.T) {
	for _, q := range QuickQuestions() {
		_, ok := LookupChannel(q.Channel)
		require.True(t, ok, q.Label)
	}
}

func TestFileIcon(t *testing.T) {
	require.Equal(t, "📕", FileIcon("umowa.PDF"))
	require.Equal(t, "📘", FileIcon("a.docx"))
	require.Equal(t, "📄", FileIcon("README"))
}
