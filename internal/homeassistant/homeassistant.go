package homeassistant

import (
	"encoding/json"
	"fmt"

	"github.com/daemonp/alula2mqtt/internal/config"
	"github.com/daemonp/alula2mqtt/internal/log"
	"github.com/daemonp/alula2mqtt/internal/mqtt"
	"github.com/daemonp/alula2mqtt/internal/poller"
	"github.com/daemonp/alula2mqtt/internal/types"
)

// HomeAssistant publishes MQTT discovery configs. Zones are discovered
// incrementally from the event log, so discovery re-runs after every
// successful cycle and publishes configs only for entities it has not
// announced yet.
type HomeAssistant struct {
	config    *config.HomeAssistantConfig
	mqtt      mqtt.MQTTClient
	poller    *poller.Poller
	log       *log.Logger
	announced map[string]bool
}

func New(cfg *config.HomeAssistantConfig, mqttClient mqtt.MQTTClient, p *poller.Poller, logger *log.Logger) *HomeAssistant {
	return &HomeAssistant{
		config:    cfg,
		mqtt:      mqttClient,
		poller:    p,
		log:       logger,
		announced: make(map[string]bool),
	}
}

func (ha *HomeAssistant) Start() {
	ha.log.Info("Starting Home Assistant discovery")
	ha.poller.OnUpdate(func(res poller.CycleResult) {
		if res.Outcome == poller.OutcomeOK {
			ha.publishDiscovery()
		}
	})
	ha.publishDiscovery()
}

func (ha *HomeAssistant) publishDiscovery() {
	snap := ha.poller.Data()
	if snap == nil {
		return
	}

	for _, panel := range snap.Panels {
		ha.publishPanelConfig(panel)
	}
	for _, zoneMap := range snap.Zones {
		for _, zone := range zoneMap {
			ha.publishZoneConfig(zone)
		}
	}
}

func (ha *HomeAssistant) publishPanelConfig(panel types.Device) {
	uniqueID := fmt.Sprintf("%s_panel_%s", ha.mqtt.GetPrefix(), panel.ID)
	if !ha.announced[uniqueID] {
		cfg := map[string]interface{}{
			"name":             panel.Name,
			"unique_id":        uniqueID,
			"state_topic":      ha.mqtt.Topics().Panel(panel),
			"command_topic":    ha.mqtt.Topics().PanelCommand(panel),
			"value_template":   "{{ value_json.alarm_state }}",
			"payload_disarm":   "disarm",
			"payload_arm_away": "arm_away",
			"payload_arm_home": "arm_stay",
			"device":           ha.deviceInfo(panel),
		}
		ha.publishConfig("alarm_control_panel", uniqueID, cfg)
		ha.announced[uniqueID] = true
	}

	ha.publishTroubleConfig(panel, "ac_trouble", "power")
	ha.publishTroubleConfig(panel, "low_battery", "battery")
	ha.publishTroubleConfig(panel, "comm_fail", "connectivity")
}

func (ha *HomeAssistant) publishTroubleConfig(panel types.Device, field, deviceClass string) {
	uniqueID := fmt.Sprintf("%s_panel_%s_%s", ha.mqtt.GetPrefix(), panel.ID, field)
	if ha.announced[uniqueID] {
		return
	}

	cfg := map[string]interface{}{
		"name":           fmt.Sprintf("%s %s", panel.Name, field),
		"unique_id":      uniqueID,
		"state_topic":    ha.mqtt.Topics().Panel(panel),
		"device_class":   deviceClass,
		"value_template": fmt.Sprintf("{{ 'ON' if value_json.%s else 'OFF' }}", field),
		"device":         ha.deviceInfo(panel),
	}
	ha.publishConfig("binary_sensor", uniqueID, cfg)
	ha.announced[uniqueID] = true
}

func (ha *HomeAssistant) publishZoneConfig(zone types.Zone) {
	uniqueID := fmt.Sprintf("%s_%s", ha.mqtt.GetPrefix(), zone.ID)
	if ha.announced[uniqueID] {
		return
	}

	cfg := map[string]interface{}{
		"name":           zone.Name,
		"unique_id":      uniqueID,
		"state_topic":    ha.mqtt.Topics().Zone(zone),
		"device_class":   getDeviceClass(zone),
		"value_template": "{{ value_json.status }}",
		"payload_on":     "open",
		"payload_off":    "closed",
	}
	ha.publishConfig("binary_sensor", uniqueID, cfg)
	ha.announced[uniqueID] = true
}

func (ha *HomeAssistant) deviceInfo(panel types.Device) map[string]interface{} {
	return map[string]interface{}{
		"identifiers":  []string{panel.ID},
		"name":         panel.Name,
		"manufacturer": "Alula / Cove",
	}
}

func (ha *HomeAssistant) publishConfig(component, objectID string, cfg map[string]interface{}) {
	topic := fmt.Sprintf("%s/%s/%s/config", ha.config.Prefix, component, objectID)

	payload, err := json.Marshal(cfg)
	if err != nil {
		ha.log.Error("Failed to marshal Home Assistant config: %v", err)
		return
	}

	ha.mqtt.Publish(topic, string(payload), true)
}
