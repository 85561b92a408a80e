package alula

import (
	"context"
	"fmt"
	"net/http"

	"github.com/daemonp/alula2mqtt/internal/types"
)

// Arm sends an arm command to a panel.
func (c *Client) Arm(ctx context.Context, panelID string, armType types.ArmType) error {
	return c.command(ctx, panelID, armType.Command())
}

// Disarm sends a disarm command to a panel.
func (c *Client) Disarm(ctx context.Context, panelID string) error {
	return c.command(ctx, panelID, "disarm")
}

func (c *Client) command(ctx context.Context, panelID, verb string) error {
	body := map[string]string{"command": verb}
	path := fmt.Sprintf("/api/v1/devices/%s/commands", panelID)
	return c.request(ctx, http.MethodPost, path, nil, body, nil)
}
