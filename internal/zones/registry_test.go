package zones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAccept(t *testing.T) {
	t.Run("first insert reports new", func(t *testing.T) {
		reg := NewRegistry()
		assert.True(t, reg.Accept("p1", 1, Metadata{Name: "Front Door", Type: "Zone"}))
		assert.True(t, reg.Contains("p1", 1))
	})

	t.Run("repeat insert reports existing", func(t *testing.T) {
		reg := NewRegistry()
		require.True(t, reg.Accept("p1", 1, Metadata{Name: "Front Door"}))
		assert.False(t, reg.Accept("p1", 1, Metadata{Name: "Front Door"}))
		assert.Equal(t, 1, reg.Len("p1"))
	})

	t.Run("panels are independent", func(t *testing.T) {
		reg := NewRegistry()
		assert.True(t, reg.Accept("p1", 1, Metadata{}))
		assert.True(t, reg.Accept("p2", 1, Metadata{}))
	})

	t.Run("blank name is backfilled", func(t *testing.T) {
		reg := NewRegistry()
		reg.Accept("p1", 2, Metadata{})
		reg.Accept("p1", 2, Metadata{Name: "Back Door", Type: "Zone"})

		view := reg.View("p1")
		assert.Equal(t, "Back Door", view[2].Name)
		assert.Equal(t, "Zone", view[2].Type)
	})

	t.Run("existing name is stable", func(t *testing.T) {
		reg := NewRegistry()
		reg.Accept("p1", 2, Metadata{Name: "Back Door"})
		reg.Accept("p1", 2, Metadata{Name: "Renamed"})

		assert.Equal(t, "Back Door", reg.View("p1")[2].Name)
	})
}

func TestRegistryMonotonicity(t *testing.T) {
	reg := NewRegistry()
	reg.Accept("p1", 1, Metadata{Name: "Front Door"})
	reg.Accept("p1", 5, Metadata{Name: "Garage"})

	// Later cycles that never observe these zones must not remove them.
	for cycle := 0; cycle < 5; cycle++ {
		reg.Accept("p1", 9, Metadata{})
		assert.True(t, reg.Contains("p1", 1))
		assert.True(t, reg.Contains("p1", 5))
	}
	assert.Equal(t, 3, reg.Len("p1"))
}

func TestRegistryViewIsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.Accept("p1", 1, Metadata{Name: "Front Door"})

	view := reg.View("p1")
	view[1] = Metadata{Name: "Mutated"}
	view[2] = Metadata{}

	assert.Equal(t, "Front Door", reg.View("p1")[1].Name)
	assert.False(t, reg.Contains("p1", 2))
}

func TestRegistryExportImport(t *testing.T) {
	reg := NewRegistry()
	reg.Accept("p1", 1, Metadata{Name: "Front Door", Type: "Zone"})
	reg.Accept("p2", 3, Metadata{Name: "Smoke", Type: "Fire"})

	restored := NewRegistry()
	restored.Import(reg.Export())

	assert.Equal(t, reg.Export(), restored.Export())
}
