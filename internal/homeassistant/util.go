package homeassistant

import (
	"strings"

	"github.com/daemonp/alula2mqtt/internal/types"
)

func getDeviceClass(zone types.Zone) string {
	// The event-log type hint is coarse; "Fire" is the only label that maps
	// directly to a device class.
	if strings.EqualFold(zone.TypeHint, "fire") {
		return "smoke"
	}

	// Guess from the zone name.
	name := strings.ToLower(zone.Name)
	if strings.Contains(name, "motion") || strings.Contains(name, "pir") {
		return "motion"
	}
	if strings.Contains(name, "window") {
		return "window"
	}
	if strings.Contains(name, "smoke") || strings.Contains(name, "fire") {
		return "smoke"
	}
	if strings.Contains(name, "water") || strings.Contains(name, "flood") {
		return "moisture"
	}
	if strings.Contains(name, "gas") {
		return "gas"
	}

	// Door/window contacts are the common case for these panels.
	return "door"
}
