package index

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/marketrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventDate(d *core.EventDoc) string { return d.Date }

func TestNew(t *testing.T) {
	built := time.Date(2025, 6, 1, 12, 0, 0, 500_000_000, time.FixedZone("KST", 9*3600))
	docs := []*core.EventDoc{
		{DocID: "a", Date: "2025-05-31"},
		{DocID: "b", Date: "2025-05-31"},
		{DocID: "c", Date: "2025-05-30"},
		{DocID: "d"},
	}
	latest := map[string]bool{"raw": true, "brief": false}

	snap := New(docs, eventDate, Params{LatestLoaded: latest, BuiltAt: built, EmbedDim: 256})

	assert.Equal(t, 4, snap.Len())
	assert.Equal(t, docs, snap.Docs())
	assert.Equal(t, map[string]int{"2025-05-31": 2, "2025-05-30": 1, UnknownDate: 1}, snap.ArchivesByDate())
	assert.Equal(t, latest, snap.LatestLoaded())
	assert.Equal(t, time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC), snap.BuiltAt())
	assert.Equal(t, 256, snap.EmbedDim())

	_, err := uuid.Parse(snap.BuildID())
	require.NoError(t, err)
}

func TestSnapshot_IsolatedFromCallers(t *testing.T) {
	latest := map[string]bool{"raw": true}
	snap := New([]*core.EventDoc{{DocID: "a", Date: "2025-05-31"}}, eventDate, Params{LatestLoaded: latest})

	latest["raw"] = false
	assert.True(t, snap.LatestLoaded()["raw"], "params are copied at construction")

	archives := snap.ArchivesByDate()
	archives["2025-05-31"] = 99
	assert.Equal(t, 1, snap.ArchivesByDate()["2025-05-31"], "accessors return copies")

	flags := snap.LatestLoaded()
	flags["brief"] = true
	assert.NotContains(t, snap.LatestLoaded(), "brief")
}

func TestNew_Empty(t *testing.T) {
	snap := New[*core.NewsDoc](nil, func(d *core.NewsDoc) string { return d.Date }, Params{EmbedDim: 192})
	assert.Equal(t, 0, snap.Len())
	assert.Empty(t, snap.ArchivesByDate())
	assert.NotEmpty(t, snap.BuildID())
}

func TestNew_UniqueBuildIDs(t *testing.T) {
	a := New[*core.NewsDoc](nil, func(d *core.NewsDoc) string { return d.Date }, Params{})
	b := New[*core.NewsDoc](nil, func(d *core.NewsDoc) string { return d.Date }, Params{})
	assert.NotEqual(t, a.BuildID(), b.BuildID())
}
