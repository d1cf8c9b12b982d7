package websocket

import (
	"context"
	"encoding/json"
	"time"

	"nova-drive-be/internal/dto"
	"nova-drive-be/internal/pkg/serverutils"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// ID identifies this connection.
	ID uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte
}

// readPump pumps UI events from the websocket connection to the inbound handler.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"conn_id": c.ID, "error": err.Error()})
			}
			break
		}
		c.Hub.handleInbound(context.Background(), c.ID, data)
	}
}

// handleInbound dispatches one UI message. Malformed input is logged and
// dropped.
func (h *Hub) handleInbound(ctx context.Context, connID uuid.UUID, data []byte) {
	if h.inbound == nil {
		return
	}

	var msg dto.WsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warn("Client", "Invalid message", map[string]interface{}{"conn_id": connID, "error": err.Error()})
		return
	}

	switch msg.Type {
	case dto.WsTypeMicPressed:
		h.inbound.PressMic(ctx)
	case dto.WsTypeLocation:
		var req dto.LocationRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			h.logger.Warn("Client", "Invalid location payload", map[string]interface{}{"conn_id": connID, "error": err.Error()})
			return
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			h.logger.Warn("Client", "Rejected location", map[string]interface{}{"conn_id": connID, "error": err.Error()})
			return
		}
		// Reverse geocoding can take seconds; keep reading pings meanwhile.
		go func() {
			if _, err := h.inbound.ReceiveLocation(ctx, req); err != nil {
				h.logger.Error("Client", "Failed to store location", map[string]interface{}{"error": err.Error()})
			}
		}()
	default:
		h.logger.Debug("Client", "Ignoring message type", map[string]interface{}{"type": msg.Type})
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame; the UI parses each frame separately.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
