package zones

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daemonp/alula2mqtt/internal/types"
)

func TestDiscover(t *testing.T) {
	events := []types.EventLogEntry{
		{DeviceID: "p1", UserZone: 1, ZoneType: "Zone", ZoneAlias: "Front Door", Qualifier: types.QualifierNew},
		{DeviceID: "p1", UserZone: 2, ZoneType: "Fire", ZoneAlias: "Smoke", Qualifier: types.QualifierRestore},
		{DeviceID: "p1", UserZone: 4, ZoneType: "User", ZoneAlias: "Alice", Qualifier: types.QualifierNew},
		{DeviceID: "p1", UserZone: 0, ZoneType: "Zone", Qualifier: types.QualifierNew},
	}

	t.Run("inserts sensor zones only", func(t *testing.T) {
		reg := NewRegistry()
		inserted := Discover(reg, "p1", events)

		assert.ElementsMatch(t, []int{1, 2}, inserted)
		assert.True(t, reg.Contains("p1", 1))
		assert.True(t, reg.Contains("p1", 2))

		// A user access code shares the numeric field with real zones but
		// must never become a zone.
		assert.False(t, reg.Contains("p1", 4))
		assert.False(t, reg.Contains("p1", 0))
	})

	t.Run("second pass over same batch inserts nothing", func(t *testing.T) {
		reg := NewRegistry()
		first := Discover(reg, "p1", events)
		second := Discover(reg, "p1", events)

		assert.Len(t, first, 2)
		assert.Empty(t, second)
		assert.Equal(t, 2, reg.Len("p1"))
	})

	t.Run("name observed later backfills a blank entry", func(t *testing.T) {
		reg := NewRegistry()
		Discover(reg, "p1", []types.EventLogEntry{
			{UserZone: 7, ZoneType: "Zone"},
		})
		Discover(reg, "p1", []types.EventLogEntry{
			{UserZone: 7, ZoneType: "Zone", ZoneAlias: "Patio Window"},
		})

		assert.Equal(t, "Patio Window", reg.View("p1")[7].Name)
	})
}
