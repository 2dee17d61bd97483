package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"dicebet-backend/internal/models"
	"dicebet-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes live roll results and balance updates to connected
// clients. It implements services.Broadcaster.
type WebSocketHandler struct {
	hub *WebSocketHub
}

type WebSocketHub struct {
	clients    map[string]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
}

type Message struct {
	Type   string      `json:"type"`
	UserID string      `json:"user_id,omitempty"`
	Data   interface{} `json:"data"`
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{hub: hub}
}

var _ services.Broadcaster = (*WebSocketHandler)(nil)

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if msg.Type == "PING" {
			client.Conn.WriteJSON(Message{
				Type: "PONG",
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

func (h *WebSocketHandler) BroadcastDiceResult(roll int, result models.Prediction, mode string) {
	h.hub.broadcast <- &Message{
		Type: "DICE_RESULT",
		Data: gin.H{
			"diceRoll":  roll,
			"result":    result,
			"mode":      mode,
			"timestamp": time.Now().Unix(),
		},
	}
}

func (h *WebSocketHandler) BroadcastBalanceUpdate(userID string, balance float64) {
	h.hub.broadcast <- &Message{
		Type:   "BALANCE_UPDATE",
		UserID: userID,
		Data: gin.H{
			"newBalance": balance,
			"timestamp":  time.Now().Unix(),
		},
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client.Conn
			log.Printf("Client registered: %s", client.UserID)

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.UserID]; ok {
				delete(hub.clients, client.UserID)
				log.Printf("Client unregistered: %s", client.UserID)
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	if message.UserID != "" {
		if conn, ok := hub.clients[message.UserID]; ok {
			conn.WriteJSON(message)
		}
	} else {
		for _, conn := range hub.clients {
			conn.WriteJSON(message)
		}
	}
}
