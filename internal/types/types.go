package types

import (
	"fmt"
	"time"
)

// Device is one entry from the vendor device list. It is an immutable
// snapshot for the duration of a single poll cycle and is replaced
// wholesale on the next one.
type Device struct {
	ID           string
	Name         string
	DeviceType   string
	IsPanel      bool
	IsCamera     bool
	ArmingState  ArmingState
	Online       bool
	ACTrouble    bool
	LowBattery   bool
	CommFail     bool
	LastArmed    time.Time
	LastDisarmed time.Time
}

// EventLogEntry is one record from the panel event log, always consumed
// newest-first. UserZone carries a zone index for sensor events and a user
// identifier for access-code events; the two are only distinguishable by
// the ZoneType label.
type EventLogEntry struct {
	DeviceID  string
	UserZone  int
	ZoneType  string
	ZoneAlias string
	Qualifier Qualifier
}

// Qualifier indicates whether an event is a new occurrence or the restore
// of a previous one. Values outside the two known codes carry no state
// information.
type Qualifier int

const (
	QualifierUnknown Qualifier = 0
	QualifierNew     Qualifier = 1
	QualifierRestore Qualifier = 3
)

func (q Qualifier) String() string {
	switch q {
	case QualifierNew:
		return "New"
	case QualifierRestore:
		return "Restore"
	default:
		return fmt.Sprintf("Unknown Qualifier(%d)", int(q))
	}
}

// Zone is the reconstructed state of one sensor zone on a panel.
type Zone struct {
	ID       string
	PanelID  string
	Index    int
	Open     bool
	Name     string
	TypeHint string
}

// ZoneID builds the stable identifier for a (panel, index) pair.
func ZoneID(panelID string, index int) string {
	return fmt.Sprintf("%s_zone_%d", panelID, index)
}

// Snapshot is the fully-built result of one poll cycle. It is handed to
// consumers as an immutable value and replaced atomically each cycle.
type Snapshot struct {
	Panels  map[string]Device
	Cameras map[string]Device
	Zones   map[string]map[int]Zone
}

// ArmingState is the panel arming state as reported by the vendor.
type ArmingState string

const (
	ArmingStateDisarmed  ArmingState = "disarmed"
	ArmingStateArmedAway ArmingState = "armed_away"
	ArmingStateArmedStay ArmingState = "armed_stay"
)

// ArmType selects the arming mode for an arm command.
type ArmType int

const (
	ArmTypeAway ArmType = iota
	ArmTypeStay
)

func (a ArmType) String() string {
	switch a {
	case ArmTypeAway:
		return "Arm Away"
	case ArmTypeStay:
		return "Arm Stay"
	default:
		return fmt.Sprintf("Unknown ArmType(%d)", int(a))
	}
}

// Command returns the vendor command verb for the arm type.
func (a ArmType) Command() string {
	switch a {
	case ArmTypeStay:
		return "arm_stay"
	default:
		return "arm_away"
	}
}
