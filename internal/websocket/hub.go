package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"nova-drive-be/internal/dto"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// InboundHandler receives the cockpit UI controls that arrive over the socket.
type InboundHandler interface {
	PressMic(ctx context.Context)
	ReceiveLocation(ctx context.Context, req dto.LocationRequest) (*dto.LocationResponse, error)
}

// Hub fans assistant display updates out to every connected cockpit screen.
// The client map is only mutated on the Run goroutine, which is also the only
// place a client's Send channel is closed.
type Hub struct {
	// Registered clients keyed by connection id.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{} // closed when Run returns

	mu sync.RWMutex

	// Replayed to newly connected screens.
	lastMonitorState []byte
	panelVisible     bool

	inbound InboundHandler

	// Redis mirror for a second display process; nil disables it.
	rdb    *redis.Client
	origin string

	logger logger.ILogger
}

var _ assistant.Display = (*Hub)(nil)

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]*Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

// SetInboundHandler wires UI controls. It must be called before Run.
func (h *Hub) SetInboundHandler(in InboundHandler) {
	h.inbound = in
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			replay := h.replayLocked()
			h.mu.Unlock()
			for _, msg := range replay {
				select {
				case client.Send <- msg:
				default:
				}
			}
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"conn_id": client.ID})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"conn_id": client.ID})
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"conn_id": id})
					delete(h.clients, id)
					close(client.Send)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) replayLocked() [][]byte {
	var out [][]byte
	if h.lastMonitorState != nil {
		out = append(out, h.lastMonitorState)
	}
	if h.panelVisible {
		out = append(out, encode(dto.WsTypeShowPanel, nil))
	}
	return out
}

// ClientCount reports the number of connected screens.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Display(text string) {
	h.publish(encode(dto.WsTypeDisplay, dto.WsDisplayData{Text: text}))
}

func (h *Hub) ShowPanel() {
	h.mu.Lock()
	h.panelVisible = true
	h.mu.Unlock()
	h.publish(encode(dto.WsTypeShowPanel, nil))
}

func (h *Hub) HidePanel() {
	h.mu.Lock()
	h.panelVisible = false
	h.mu.Unlock()
	h.publish(encode(dto.WsTypeHidePanel, nil))
}

func (h *Hub) UpdateMonitorState(monitoring, voiceFeedback bool) {
	mode := "off"
	if monitoring && voiceFeedback {
		mode = "on"
	}
	msg := encode(dto.WsTypeMonitorState, dto.WsMonitorStateData{
		Monitoring:    monitoring,
		VoiceFeedback: voiceFeedback,
		Mode:          mode,
	})
	h.mu.Lock()
	h.lastMonitorState = msg
	h.mu.Unlock()
	h.publish(msg)
}

func encode(msgType string, data interface{}) []byte {
	msg := map[string]interface{}{"type": msgType}
	if data != nil {
		msg["data"] = data
	}
	out, _ := json.Marshal(msg)
	return out
}

// publish never blocks the assistant; a full queue drops the update.
func (h *Hub) publish(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Hub", "Broadcast queue full, dropping message", nil)
	}

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"origin":  h.origin,
			"message": json.RawMessage(msg),
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload struct {
				Origin  string          `json:"origin"`
				Message json.RawMessage `json:"message"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.origin {
				continue
			}
			select {
			case h.broadcast <- []byte(payload.Message):
			default:
			}
		}
	}
}
