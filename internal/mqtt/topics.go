package mqtt

import (
	"fmt"

	"github.com/daemonp/alula2mqtt/internal/types"
	"github.com/daemonp/alula2mqtt/internal/util"
)

type Topics struct {
	prefix string
}

func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

func (t *Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix)
}

func (t *Topics) Panel(d types.Device) string {
	return fmt.Sprintf("%s/panel/%s", t.prefix, util.Slugify(d.Name))
}

func (t *Topics) PanelCommand(d types.Device) string {
	return fmt.Sprintf("%s/panel/%s/command", t.prefix, util.Slugify(d.Name))
}

// PanelCommandWildcard matches every panel command topic; panels and their
// names are only known after the first poll, so subscription uses a
// wildcard instead of per-panel topics.
func (t *Topics) PanelCommandWildcard() string {
	return fmt.Sprintf("%s/panel/+/command", t.prefix)
}

func (t *Topics) Camera(d types.Device) string {
	return fmt.Sprintf("%s/camera/%s", t.prefix, util.Slugify(d.Name))
}

// Zone topics are keyed by the stable zone ID rather than the display name:
// zone names are discovered lazily from the event log and may arrive blank.
func (t *Topics) Zone(z types.Zone) string {
	return fmt.Sprintf("%s/zone/%s", t.prefix, z.ID)
}

func (t *Topics) Refresh() string {
	return fmt.Sprintf("%s/refresh", t.prefix)
}

func (t *Topics) Log() string {
	return fmt.Sprintf("%s/log", t.prefix)
}
