package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/daemonp/alula2mqtt/internal/config"
	"github.com/daemonp/alula2mqtt/internal/log"
	"github.com/daemonp/alula2mqtt/internal/poller"
	"github.com/daemonp/alula2mqtt/internal/types"
)

const (
	offlinePayload = "offline"
	onlinePayload  = "online"

	commandTimeout = 30 * time.Second
)

type MQTT struct {
	config *config.MQTTConfig
	poller *poller.Poller
	log    *log.Logger
	client mqtt.Client
	topics *Topics
}

func NewMQTT(cfg *config.MQTTConfig, p *poller.Poller, logger *log.Logger) *MQTT {
	m := &MQTT{
		config: cfg,
		poller: p,
		log:    logger,
		topics: NewTopics(cfg.Prefix),
	}
	p.OnUpdate(m.handleUpdate)
	return m
}

func (m *MQTT) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", m.config.Host, m.config.Port))
	opts.SetClientID(m.config.ClientID)
	opts.SetUsername(m.config.Username)
	opts.SetPassword(m.config.Password)
	opts.SetCleanSession(m.config.Clean)
	opts.SetKeepAlive(time.Duration(m.config.Keepalive) * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(m.onDisconnect)

	opts.SetWill(m.topics.Status(), offlinePayload, byte(m.config.QOS), m.config.Retain)

	m.client = mqtt.NewClient(opts)

	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	m.log.Info("Connected to MQTT broker: %s:%d", m.config.Host, m.config.Port)
	return nil
}

func (m *MQTT) onConnect(client mqtt.Client) {
	m.log.Info("MQTT connection established")
	m.Publish(m.topics.Status(), onlinePayload, true)
	m.subscribeTopics()
	if snap := m.poller.Data(); snap != nil {
		m.publishSnapshot(snap)
	}
}

func (m *MQTT) onDisconnect(client mqtt.Client, err error) {
	m.log.Error("MQTT connection lost: %v", err)
}

func (m *MQTT) subscribeTopics() {
	topics := []string{
		m.topics.PanelCommandWildcard(),
		m.topics.Refresh(),
	}

	for _, topic := range topics {
		token := m.client.Subscribe(topic, byte(m.config.QOS), m.handleMessage)
		if token.Wait() && token.Error() != nil {
			m.log.Error("Failed to subscribe to topic %s: %v", topic, token.Error())
		} else {
			m.log.Debug("Subscribed to topic: %s", topic)
		}
	}
}

func (m *MQTT) handleMessage(client mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	payload := string(msg.Payload())

	m.log.Debug("Received message on topic %s: %s", topic, payload)

	if topic == m.topics.Refresh() {
		m.poller.Refresh()
		return
	}

	snap := m.poller.Data()
	if snap == nil {
		m.log.Warning("Ignoring command before first snapshot: %s", topic)
		return
	}
	for _, panel := range snap.Panels {
		if topic == m.topics.PanelCommand(panel) {
			m.handlePanelCommand(panel, payload)
			return
		}
	}
	m.log.Warning("Received message on unknown topic: %s", topic)
}

func (m *MQTT) handlePanelCommand(panel types.Device, command string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch command {
	case "arm_away":
		err = m.poller.Arm(ctx, panel.ID, types.ArmTypeAway)
	case "arm_stay":
		err = m.poller.Arm(ctx, panel.ID, types.ArmTypeStay)
	case "disarm":
		err = m.poller.Disarm(ctx, panel.ID)
	default:
		m.log.Warning("Unknown panel command: %s", command)
		return
	}
	if err != nil {
		m.log.Error("Panel command %q failed for %s: %v", command, panel.Name, err)
	}
}

func (m *MQTT) handleUpdate(res poller.CycleResult) {
	outcome := map[string]interface{}{
		"cycle":   res.Cycle,
		"outcome": res.Outcome.String(),
	}
	if res.Err != nil {
		outcome["error"] = res.Err.Error()
	}
	m.publish(m.topics.Log(), outcome, m.config.RetainLog)

	if res.Outcome != poller.OutcomeOK {
		return
	}
	if snap := m.poller.Data(); snap != nil {
		m.publishSnapshot(snap)
	}
}

func (m *MQTT) publishSnapshot(snap *types.Snapshot) {
	for _, panel := range snap.Panels {
		m.publishPanelStatus(panel)
	}
	for _, camera := range snap.Cameras {
		m.publishCameraStatus(camera)
	}
	for _, zoneMap := range snap.Zones {
		for _, zone := range zoneMap {
			m.publishZoneStatus(zone)
		}
	}
}

func (m *MQTT) publishPanelStatus(panel types.Device) {
	status := map[string]interface{}{
		"id":           panel.ID,
		"name":         panel.Name,
		"arming_state": string(panel.ArmingState),
		"alarm_state":  alarmState(panel.ArmingState),
		"online":       panel.Online,
		"ac_trouble":   panel.ACTrouble,
		"low_battery":  panel.LowBattery,
		"comm_fail":    panel.CommFail,
	}
	if !panel.LastArmed.IsZero() {
		status["last_armed"] = panel.LastArmed.Format(time.RFC3339)
	}
	if !panel.LastDisarmed.IsZero() {
		status["last_disarmed"] = panel.LastDisarmed.Format(time.RFC3339)
	}
	m.publish(m.topics.Panel(panel), status, true)
}

func (m *MQTT) publishCameraStatus(camera types.Device) {
	status := map[string]interface{}{
		"id":     camera.ID,
		"name":   camera.Name,
		"online": camera.Online,
	}
	m.publish(m.topics.Camera(camera), status, true)
}

func (m *MQTT) publishZoneStatus(zone types.Zone) {
	status := map[string]interface{}{
		"id":     zone.ID,
		"name":   zone.Name,
		"panel":  zone.PanelID,
		"index":  zone.Index,
		"status": zoneStatus(zone.Open),
		"type":   zone.TypeHint,
	}
	m.publish(m.topics.Zone(zone), status, true)
}

// alarmState maps the vendor arming state onto the Home Assistant alarm
// panel state vocabulary.
func alarmState(s types.ArmingState) string {
	switch s {
	case types.ArmingStateArmedAway:
		return "armed_away"
	case types.ArmingStateArmedStay:
		return "armed_home"
	default:
		return "disarmed"
	}
}

func zoneStatus(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}

func (m *MQTT) GetPrefix() string {
	return m.config.Prefix
}

func (m *MQTT) Topics() *Topics {
	return m.topics
}

func (m *MQTT) Publish(topic string, payload interface{}, retain bool) {
	m.publish(topic, payload, retain)
}

func (m *MQTT) publish(topic string, message interface{}, retain bool) {
	var payload []byte
	switch v := message.(type) {
	case string:
		payload = []byte(v)
	default:
		var err error
		payload, err = json.Marshal(message)
		if err != nil {
			m.log.Error("Failed to marshal message for topic %s: %v", topic, err)
			return
		}
	}

	token := m.client.Publish(topic, byte(m.config.QOS), retain, payload)
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to publish message to topic %s: %v", topic, token.Error())
	} else {
		m.log.Debug("Published message to topic: %s", topic)
	}
}

func (m *MQTT) Close() {
	if m.client != nil && m.client.IsConnected() {
		m.publish(m.topics.Status(), offlinePayload, true)
		m.client.Disconnect(250)
	}
}
