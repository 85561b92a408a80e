package zones

import (
	"fmt"

	"github.com/daemonp/alula2mqtt/internal/types"
)

// Reconstruct derives the current open/closed state of every registered
// zone on a panel from an event batch. The batch must be newest-first: the
// first qualifying event seen for an index wins and older ones are ignored.
// Indices with no qualifying event in the batch fall back to closed — the
// event log is sampled, not authoritative, so "no events" never means
// "zone gone". The result always contains exactly one entry per index in
// the view.
func Reconstruct(panelID string, events []types.EventLogEntry, view map[int]Metadata) map[int]types.Zone {
	out := make(map[int]types.Zone, len(view))
	seen := make(map[int]bool, len(view))

	for _, ev := range events {
		index := ev.UserZone
		if index == 0 {
			continue
		}
		meta, registered := view[index]
		if !registered || seen[index] {
			continue
		}

		var open bool
		switch ev.Qualifier {
		case types.QualifierNew:
			open = true
		case types.QualifierRestore:
			open = false
		default:
			// Not indicative of open/closed; the entry may still have
			// fed discovery.
			continue
		}

		seen[index] = true
		out[index] = makeZone(panelID, index, open, meta)
	}

	for index, meta := range view {
		if !seen[index] {
			out[index] = makeZone(panelID, index, false, meta)
		}
	}

	return out
}

func makeZone(panelID string, index int, open bool, meta Metadata) types.Zone {
	name := meta.Name
	if name == "" {
		name = fmt.Sprintf("Zone %d", index)
	}
	return types.Zone{
		ID:       types.ZoneID(panelID, index),
		PanelID:  panelID,
		Index:    index,
		Open:     open,
		Name:     name,
		TypeHint: meta.Type,
	}
}
