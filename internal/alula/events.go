package alula

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/daemonp/alula2mqtt/internal/types"
	"github.com/daemonp/alula2mqtt/internal/util"
)

// flexInt tolerates the vendor's habit of sending the user/zone field as
// either a number or a numeric string. Anything non-numeric decodes to the
// zero sentinel, which downstream logic skips.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

type eventAttributes struct {
	DeviceID       string  `json:"deviceId"`
	UserZone       flexInt `json:"userZone"`
	ZoneType       string  `json:"zoneType"`
	ZoneAlias      string  `json:"zoneAlias"`
	EventQualifier int     `json:"eventQualifier"`
}

// GetEventLog fetches up to limit event-log entries for a panel, newest
// first. The server guarantees the ordering; entries with equal timestamps
// have no defined relative order.
func (c *Client) GetEventLog(ctx context.Context, panelID string, limit int) ([]types.EventLogEntry, error) {
	params := url.Values{}
	params.Set("deviceId", panelID)
	params.Set("page[size]", strconv.Itoa(limit))
	params.Set("sort", "-timestamp")

	var envelope resourceList
	if err := c.request(ctx, http.MethodGet, "/api/v1/events", params, nil, &envelope); err != nil {
		return nil, err
	}

	entries := make([]types.EventLogEntry, 0, len(envelope.Data))
	for _, res := range envelope.Data {
		var attrs eventAttributes
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			c.log.Warning("Skipping malformed event record %s: %v", res.ID, err)
			continue
		}
		deviceID := attrs.DeviceID
		if deviceID == "" {
			deviceID = panelID
		}
		entries = append(entries, types.EventLogEntry{
			DeviceID:  deviceID,
			UserZone:  int(attrs.UserZone),
			ZoneType:  attrs.ZoneType,
			ZoneAlias: util.Normalize(attrs.ZoneAlias),
			Qualifier: types.Qualifier(attrs.EventQualifier),
		})
	}
	return entries, nil
}
