package zones

import (
	"github.com/daemonp/alula2mqtt/internal/types"
)

// Discover scans an event batch for sensor zones not yet in the registry,
// accepts them, and returns the indices that were newly inserted this call.
// Running it twice over the same batch inserts nothing the second time.
func Discover(reg *Registry, panelID string, events []types.EventLogEntry) []int {
	var inserted []int
	for _, ev := range events {
		if ev.UserZone == 0 {
			// Reserved sentinel: the entry carries no zone number.
			continue
		}
		if !IsSensor(ev.ZoneType) {
			continue
		}
		meta := Metadata{Name: ev.ZoneAlias, Type: ev.ZoneType}
		if reg.Accept(panelID, ev.UserZone, meta) {
			inserted = append(inserted, ev.UserZone)
		}
	}
	return inserted
}
