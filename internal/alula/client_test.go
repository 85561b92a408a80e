package alula

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/alula2mqtt/internal/log"
	"github.com/daemonp/alula2mqtt/internal/types"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, log.NewLogger("error"))
}

func TestLoginStoresTokens(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
			"expiresIn":    3600,
		})
	}))

	require.NoError(t, c.Login(context.Background(), "user@example.com", "secret"))
	assert.Equal(t, "refresh-1", c.RefreshToken())
}

func TestListDevices(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/devices", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"id":   "p1",
					"type": "devices",
					"attributes": map[string]interface{}{
						"name":        "Home\x00 ",
						"deviceType":  "panel",
						"armingState": "armed_away",
						"online":      true,
						"lowBattery":  true,
						"lastArmed":   "2026-08-27T21:14:00Z",
					},
				},
				{
					"id":   "c1",
					"type": "devices",
					"attributes": map[string]interface{}{
						"name":       "Porch",
						"deviceType": "camera",
						"online":     true,
					},
				},
			},
		})
	}))

	devices, err := c.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "Home", devices[0].Name)
	assert.True(t, devices[0].IsPanel)
	assert.Equal(t, types.ArmingStateArmedAway, devices[0].ArmingState)
	assert.True(t, devices[0].LowBattery)
	assert.False(t, devices[0].LastArmed.IsZero())

	assert.True(t, devices[1].IsCamera)
	assert.False(t, devices[1].IsPanel)
}

func TestGetEventLog(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/events", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("deviceId"))
		assert.Equal(t, "50", r.URL.Query().Get("page[size]"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"id": "e1",
					"attributes": map[string]interface{}{
						"deviceId":       "p1",
						"userZone":       3,
						"zoneType":       "Zone",
						"zoneAlias":      "Front Door",
						"eventQualifier": 1,
					},
				},
				{
					"id": "e2",
					"attributes": map[string]interface{}{
						// Numeric string form of the same field.
						"userZone":       "7",
						"zoneType":       "User",
						"zoneAlias":      "Alice",
						"eventQualifier": 3,
					},
				},
				{
					"id": "e3",
					"attributes": map[string]interface{}{
						"userZone": "n/a",
						"zoneType": "Zone",
					},
				},
			},
		})
	}))

	entries, err := c.GetEventLog(context.Background(), "p1", 50)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 3, entries[0].UserZone)
	assert.Equal(t, types.QualifierNew, entries[0].Qualifier)
	assert.Equal(t, "Front Door", entries[0].ZoneAlias)

	assert.Equal(t, 7, entries[1].UserZone)
	assert.Equal(t, "p1", entries[1].DeviceID, "missing deviceId falls back to the requested panel")

	// Non-numeric user/zone fields decode to the zero sentinel.
	assert.Equal(t, 0, entries[2].UserZone)
}

func TestErrorMapping(t *testing.T) {
	t.Run("unauthorized maps to AuthError", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
		}))

		_, err := c.ListDevices(context.Background())
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Contains(t, authErr.Error(), "token expired")
	})

	t.Run("server error maps to APIError", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		_, err := c.ListDevices(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	})

	t.Run("unreachable host maps to ConnectionError", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", log.NewLogger("error"))
		_, err := c.ListDevices(context.Background())
		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
	})
}

func TestReauthOnUnauthorized(t *testing.T) {
	refreshes := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/refresh":
			refreshes++
			json.NewEncoder(w).Encode(map[string]interface{}{
				"accessToken":  "access-2",
				"refreshToken": "refresh-2",
			})
		case "/api/v1/devices":
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	c.RestoreTokens("refresh-1")

	devices, err := c.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, "refresh-2", c.RefreshToken(), "rotated refresh token is kept")
}

func TestEnsureZoneSubscriptions(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/events/notifications/zones", r.URL.Path)

		var body struct {
			Data []zoneSubscription `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Data, 2)
		assert.Equal(t, 1, body.Data[0].Attributes.ZoneIndex)
		assert.Equal(t, 5, body.Data[1].Attributes.ZoneIndex)
		assert.NotEmpty(t, body.Data[0].ID)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"meta": map[string]int{"created": 1},
		})
	}))

	created, err := c.EnsureZoneSubscriptions(context.Background(), "p1", []int{5, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestEnsureZoneSubscriptionsNoIndices(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", log.NewLogger("error"))
	created, err := c.EnsureZoneSubscriptions(context.Background(), "p1", nil)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestCommands(t *testing.T) {
	var got map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/devices/p1/commands", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.Arm(context.Background(), "p1", types.ArmTypeStay))
	assert.Equal(t, "arm_stay", got["command"])

	require.NoError(t, c.Disarm(context.Background(), "p1"))
	assert.Equal(t, "disarm", got["command"])
}

func TestRefreshWithoutToken(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", log.NewLogger("error"))
	err := c.Refresh(context.Background())
	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr))
}
