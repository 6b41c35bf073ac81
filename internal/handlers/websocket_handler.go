package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler pushes sales-history changes to connected dashboards.
type WebSocketHandler struct {
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
}

func NewWebSocketHandler() *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

func (h *WebSocketHandler) HandleConnections(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer func() {
		h.unregister <- ws
		ws.Close()
	}()

	h.register <- ws
	log.Info().Str("remote", c.Request.RemoteAddr).Msg("websocket client connected")

	go h.handleClientMessages(ws)

	for {
		time.Sleep(30 * time.Second)
		if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
			return
		}
	}
}

func (h *WebSocketHandler) handleClientMessages(ws *websocket.Conn) {
	for {
		var msg map[string]interface{}

		err := ws.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("websocket read error")
			}
			break
		}

		switch msg["type"] {
		case "subscribe":
			ws.WriteJSON(map[string]interface{}{
				"type":      "subscribed",
				"message":   "Subscribed to sales updates",
				"timestamp": time.Now().Unix(),
			})

		case "ping":
			ws.WriteJSON(map[string]interface{}{
				"type": "pong",
				"time": time.Now().Unix(),
			})

		default:
			ws.WriteJSON(map[string]interface{}{
				"type":      "error",
				"message":   "Unknown message type",
				"timestamp": time.Now().Unix(),
			})
		}
	}
}

// RunHub owns the client set; all register/unregister/broadcast traffic
// goes through its channels.
func (h *WebSocketHandler) RunHub() {
	log.Info().Msg("starting websocket hub")

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				err := client.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastSalesUpdate pushes a medicine's new sales history to every
// connected client.
func (h *WebSocketHandler) BroadcastSalesUpdate(medicineID int64, sales map[string]int64) {
	message := map[string]interface{}{
		"type":        "sales_update",
		"medicine_id": medicineID,
		"sales":       sales,
		"timestamp":   time.Now().Unix(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal sales update")
		return
	}

	h.broadcast <- data
}
