package zones

import "strings"

// The event log conflates physical sensor zones and user access codes in
// the same numeric field; the zone-type label is the only way to tell them
// apart. Unlabeled entries are treated as sensors because older panel
// firmware omits the label on generic zones.
var sensorLabels = map[string]bool{
	"":     true,
	"zone": true,
	"fire": true,
}

// IsSensor reports whether a zone-type label identifies a physical sensor
// zone. Labels outside the accepted set, notably "User", must never enter
// the registry: they would create phantom sensors.
func IsSensor(zoneType string) bool {
	return sensorLabels[strings.ToLower(strings.TrimSpace(zoneType))]
}
