package notify

import (
	"encoding/json"
	"time"

	"github.com/serverwatch/fivewatch/internal/models"
	ws "github.com/serverwatch/fivewatch/internal/websocket"
)

// HubNotifier mirrors every notification onto the websocket hub so
// dashboard clients see the same stream as the chat channel.
type HubNotifier struct {
	hub *ws.Hub
}

// NewHubNotifier wraps a hub as a Notifier.
func NewHubNotifier(hub *ws.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

type hubMessage struct {
	Type     string      `json:"type"`
	ServerID string      `json:"serverId"`
	Payload  interface{} `json:"payload"`
	At       time.Time   `json:"at"`
}

func (h *HubNotifier) send(server *models.TrackedServer, msgType string, payload interface{}, at time.Time) error {
	raw, err := json.Marshal(hubMessage{
		Type:     msgType,
		ServerID: server.ID,
		Payload:  payload,
		At:       at,
	})
	if err != nil {
		return err
	}
	h.hub.BroadcastTo(server.ID, raw)
	return nil
}

func (h *HubNotifier) Notify(server *models.TrackedServer, text string) error {
	return h.send(server, "server.alert", text, time.Now())
}

func (h *HubNotifier) NotifyReport(server *models.TrackedServer, report models.ChangeReport, at time.Time) error {
	return h.send(server, "server.change", report, at)
}

func (h *HubNotifier) UpdatePresence(server *models.TrackedServer, snap *models.ServerSnapshot) error {
	return h.send(server, "server.status", snap, time.Now())
}
