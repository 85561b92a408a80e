package zones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/alula2mqtt/internal/types"
)

func TestReconstructNewestWins(t *testing.T) {
	view := map[int]Metadata{3: {Name: "Front Door", Type: "Zone"}}

	// Newest-first: the restore is the most recent event for zone 3, so the
	// older open must be ignored.
	events := []types.EventLogEntry{
		{UserZone: 3, ZoneType: "Zone", Qualifier: types.QualifierRestore},
		{UserZone: 3, ZoneType: "Zone", Qualifier: types.QualifierNew},
	}

	result := Reconstruct("p1", events, view)
	require.Contains(t, result, 3)
	assert.False(t, result[3].Open)
}

func TestReconstructCompleteness(t *testing.T) {
	view := map[int]Metadata{
		1: {Name: "Front Door"},
		2: {Name: "Back Door"},
		5: {},
	}

	t.Run("empty batch yields one closed entry per known zone", func(t *testing.T) {
		result := Reconstruct("p1", nil, view)
		require.Len(t, result, 3)
		for index, zone := range result {
			assert.False(t, zone.Open, "zone %d", index)
		}
	})

	t.Run("partial batch backfills the rest", func(t *testing.T) {
		events := []types.EventLogEntry{
			{UserZone: 1, Qualifier: types.QualifierNew},
		}
		result := Reconstruct("p1", events, view)
		require.Len(t, result, 3)
		assert.True(t, result[1].Open)
		assert.False(t, result[2].Open)
		assert.False(t, result[5].Open)
	})
}

func TestReconstructSkips(t *testing.T) {
	view := map[int]Metadata{1: {Name: "Front Door"}}

	t.Run("zero sentinel", func(t *testing.T) {
		events := []types.EventLogEntry{
			{UserZone: 0, Qualifier: types.QualifierNew},
		}
		result := Reconstruct("p1", events, view)
		require.Len(t, result, 1)
		assert.False(t, result[1].Open)
	})

	t.Run("unregistered index", func(t *testing.T) {
		events := []types.EventLogEntry{
			{UserZone: 9, Qualifier: types.QualifierNew},
		}
		result := Reconstruct("p1", events, view)
		require.Len(t, result, 1)
		assert.NotContains(t, result, 9)
	})

	t.Run("non-indicative qualifier falls through to an older event", func(t *testing.T) {
		events := []types.EventLogEntry{
			{UserZone: 1, Qualifier: types.Qualifier(7)},
			{UserZone: 1, Qualifier: types.QualifierNew},
		}
		result := Reconstruct("p1", events, view)
		assert.True(t, result[1].Open)
	})
}

func TestReconstructZoneFields(t *testing.T) {
	view := map[int]Metadata{
		1: {Name: "Front Door", Type: "Zone"},
		2: {},
	}
	result := Reconstruct("p1", nil, view)

	assert.Equal(t, "p1_zone_1", result[1].ID)
	assert.Equal(t, "p1", result[1].PanelID)
	assert.Equal(t, "Front Door", result[1].Name)
	assert.Equal(t, "Zone", result[1].TypeHint)

	// Unnamed zones get a stable placeholder name.
	assert.Equal(t, "Zone 2", result[2].Name)
}

func TestColdStartScenario(t *testing.T) {
	reg := NewRegistry()
	events := []types.EventLogEntry{
		{UserZone: 1, ZoneType: "Zone", ZoneAlias: "Front Door", Qualifier: types.QualifierNew},
	}

	inserted := Discover(reg, "p1", events)
	require.Equal(t, []int{1}, inserted)

	result := Reconstruct("p1", events, reg.View("p1"))
	require.Len(t, result, 1)
	assert.True(t, result[1].Open)
	assert.Equal(t, "Front Door", result[1].Name)
}

func TestQuietCycleScenario(t *testing.T) {
	reg := NewRegistry()
	reg.Accept("p1", 1, Metadata{Name: "Front Door", Type: "Zone"})

	result := Reconstruct("p1", nil, reg.View("p1"))
	require.Len(t, result, 1)
	assert.False(t, result[1].Open)
	assert.Equal(t, "Front Door", result[1].Name)
}
