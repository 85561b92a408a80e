package alula

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/daemonp/alula2mqtt/internal/types"
	"github.com/daemonp/alula2mqtt/internal/util"
)

// resourceList is the JSON:API envelope the vendor wraps every collection in.
type resourceList struct {
	Data []resource `json:"data"`
}

type resource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
}

type deviceAttributes struct {
	Name         string `json:"name"`
	DeviceType   string `json:"deviceType"`
	ArmingState  string `json:"armingState"`
	Online       bool   `json:"online"`
	ACTrouble    bool   `json:"acTrouble"`
	LowBattery   bool   `json:"lowBattery"`
	CommFail     bool   `json:"commFail"`
	LastArmed    string `json:"lastArmed"`
	LastDisarmed string `json:"lastDisarmed"`
}

// ListDevices fetches all devices on the account.
func (c *Client) ListDevices(ctx context.Context) ([]types.Device, error) {
	params := url.Values{}
	params.Set("page[size]", "100")

	var envelope resourceList
	if err := c.request(ctx, http.MethodGet, "/api/v1/devices", params, nil, &envelope); err != nil {
		return nil, err
	}

	devices := make([]types.Device, 0, len(envelope.Data))
	for _, res := range envelope.Data {
		var attrs deviceAttributes
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			c.log.Warning("Skipping malformed device record %s: %v", res.ID, err)
			continue
		}
		devices = append(devices, types.Device{
			ID:           res.ID,
			Name:         util.Normalize(attrs.Name),
			DeviceType:   attrs.DeviceType,
			IsPanel:      attrs.DeviceType == "panel",
			IsCamera:     attrs.DeviceType == "camera",
			ArmingState:  types.ArmingState(attrs.ArmingState),
			Online:       attrs.Online,
			ACTrouble:    attrs.ACTrouble,
			LowBattery:   attrs.LowBattery,
			CommFail:     attrs.CommFail,
			LastArmed:    parseTimestamp(attrs.LastArmed),
			LastDisarmed: parseTimestamp(attrs.LastDisarmed),
		})
	}
	return devices, nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
