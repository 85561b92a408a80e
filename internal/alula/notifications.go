package alula

import (
	"context"
	"net/http"
	"sort"

	"github.com/google/uuid"
)

type zoneSubscription struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes zoneSubscriptionAttrib `json:"attributes"`
}

type zoneSubscriptionAttrib struct {
	DeviceID  string `json:"deviceId"`
	ZoneIndex int    `json:"zoneIndex"`
}

// EnsureZoneSubscriptions registers event notifications for the given zone
// indices on a panel and returns how many subscriptions were newly created.
// Existing subscriptions are left alone by the server.
func (c *Client) EnsureZoneSubscriptions(ctx context.Context, panelID string, indices []int) (int, error) {
	if len(indices) == 0 {
		return 0, nil
	}

	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	subs := make([]zoneSubscription, 0, len(sorted))
	for _, idx := range sorted {
		subs = append(subs, zoneSubscription{
			Type: "zone-subscription",
			ID:   uuid.NewString(),
			Attributes: zoneSubscriptionAttrib{
				DeviceID:  panelID,
				ZoneIndex: idx,
			},
		})
	}

	body := map[string]interface{}{"data": subs}
	var out struct {
		Meta struct {
			Created int `json:"created"`
		} `json:"meta"`
	}
	if err := c.request(ctx, http.MethodPost, "/api/v1/events/notifications/zones", nil, body, &out); err != nil {
		return 0, err
	}
	return out.Meta.Created, nil
}

// RenewNotifications extends the account's event notification lease.
// Best-effort: callers log and ignore failures.
func (c *Client) RenewNotifications(ctx context.Context) error {
	return c.request(ctx, http.MethodPost, "/api/v1/events/notifications/renew", nil, nil, nil)
}
