package websocket

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	"github.com/AzielCF/az-engage/infrastructure/valkey"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	valkeylib "github.com/valkey-io/valkey-go"
)

const (
	CodeCampaignProgress = "CAMPAIGN_PROGRESS"
	CodeFetchCampaigns   = "FETCH_CAMPAIGNS"
	CodeListCampaigns    = "LIST_CAMPAIGNS"

	broadcastBuffer = 64

	// ownerLocal matches the key basicauth stores the authenticated user under.
	ownerLocal = "username"
)

type BroadcastMessage struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Result   any    `json:"result"`
	SenderID string `json:"sender_id,omitempty"`
	// OwnerID limits delivery to consoles of that user; empty reaches everyone.
	OwnerID string `json:"owner_id,omitempty"`
}

type client struct {
	conn  *websocket.Conn
	owner string
}

// Hub pushes campaign events to the consoles of the campaign's owner. The
// client set is only touched from Run.
type Hub struct {
	clients    map[*websocket.Conn]string
	register   chan client
	unregister chan *websocket.Conn
	broadcast  chan BroadcastMessage
	done       chan struct{}

	vkClient *valkey.Client
	vkChan   string
	localID  string
}

var _ domainCampaign.IProgressNotifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]string),
		register:   make(chan client),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan BroadcastMessage, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// WithValkey enables fan-out so consoles attached to other servers see the events too.
func (h *Hub) WithValkey(client *valkey.Client, serverID string) *Hub {
	h.vkClient = client
	h.vkChan = client.Key("ws_broadcast")
	h.localID = serverID
	return h
}

// Publish queues a message without blocking; it is dropped when the hub is saturated.
func (h *Hub) Publish(message BroadcastMessage) {
	select {
	case h.broadcast <- message:
	default:
		logrus.Warnf("[WS] Broadcast queue full, dropping %s", message.Code)
	}
}

func (h *Hub) NotifyProgress(details domainCampaign.CampaignDetails) {
	h.Publish(BroadcastMessage{
		Code:    CodeCampaignProgress,
		Message: "Campaign " + string(details.Status),
		Result:  details,
		OwnerID: details.OwnerID,
	})
}

func (h *Hub) broadcastToLocal(message BroadcastMessage) {
	marshalMessage, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}

	for conn, owner := range h.clients {
		if message.OwnerID != "" && message.OwnerID != owner {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, marshalMessage); err != nil {
			logrus.Errorf("[WS] Write error: %v", err)
			h.closeConnection(conn)
		}
	}
}

func (h *Hub) publishToValkey(ctx context.Context, message BroadcastMessage) {
	message.SenderID = h.localID

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	cmd := h.vkClient.Inner().B().Publish().Channel(h.vkChan).Message(string(data)).Build()
	if err := h.vkClient.Inner().Do(ctx, cmd).Error(); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

// remote messages are delivered to local clients only, never republished.
func (h *Hub) startValkeySubscriber(ctx context.Context, remote chan<- BroadcastMessage) {
	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed events")
	go func() {
		cmd := h.vkClient.Inner().B().Subscribe().Channel(h.vkChan).Build()
		err := h.vkClient.Inner().Receive(ctx, cmd, func(msg valkeylib.PubSubMessage) {
			var broadcastMsg BroadcastMessage
			if err := json.Unmarshal([]byte(msg.Message), &broadcastMsg); err != nil {
				return
			}
			if broadcastMsg.SenderID == h.localID {
				return
			}
			select {
			case remote <- broadcastMsg:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
		}
	}()
}

func (h *Hub) closeConnection(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = conn.Close()
	delete(h.clients, conn)
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	remote := make(chan BroadcastMessage, broadcastBuffer)
	if h.vkClient != nil {
		h.startValkeySubscriber(ctx, remote)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for conn := range h.clients {
				h.closeConnection(conn)
			}
			return

		case c := <-h.register:
			h.clients[c.conn] = c.owner
			logrus.Debug("[WS] Connection registered")

		case conn := <-h.unregister:
			delete(h.clients, conn)
			logrus.Debug("[WS] Connection unregistered")

		case message := <-h.broadcast:
			h.broadcastToLocal(message)
			if h.vkClient != nil {
				h.publishToValkey(ctx, message)
			}

		case message := <-remote:
			h.broadcastToLocal(message)
		}
	}
}

func RegisterRoutes(app fiber.Router, hub *Hub, service domainCampaign.ICampaignUsecase) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		owner, _ := conn.Locals(ownerLocal).(string)
		if owner == "" {
			logrus.Warn("[WS] Rejecting unauthenticated console")
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthenticated"))
			_ = conn.Close()
			return
		}

		defer func() {
			select {
			case hub.unregister <- conn:
			case <-hub.done:
			}
			_ = conn.Close()
		}()

		select {
		case hub.register <- client{conn: conn, owner: owner}:
		case <-hub.done:
			return
		}

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] read error: %v", err)
				}
				return
			}

			if messageType != websocket.TextMessage {
				logrus.Debugf("[WS] unsupported message type: %d", messageType)
				continue
			}

			var messageData BroadcastMessage
			if err := json.Unmarshal(message, &messageData); err != nil {
				logrus.Debugf("[WS] unmarshal error: %v", err)
				return
			}

			if messageData.Code == CodeFetchCampaigns {
				hub.Publish(BroadcastMessage{
					Code:    CodeListCampaigns,
					Message: "Campaigns found",
					Result:  service.ListLocal(context.Background(), owner),
					OwnerID: owner,
				})
			}
		}
	}))
}
