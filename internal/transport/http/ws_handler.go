package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"trivia-arena/internal/game"
)

// WSHandler upgrades connections and serves the lobby/leaderboard message
// flow. Each connection joins the player's private room so answer results and
// per-player questions reach only them.
type WSHandler struct {
	service  *game.Service
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(service *game.Service, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type wsClient struct {
	conn *websocket.Conn
	send chan outboundMessage
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type playerRef struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn, send: make(chan outboundMessage, 16)}
	h.hub.register(client)
	h.hub.join(playerID, client)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range client.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, client, playerID, inbound)
	}

	// Leave the hub before closing the channel so no broadcast can race a
	// send against the close.
	h.hub.unregister(client)
	close(client.send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, client *wsClient, playerID string, inbound inboundMessage) {
	ctx := r.Context()
	switch inbound.Type {
	case "join_waiting":
		var ref playerRef
		_ = json.Unmarshal(inbound.Payload, &ref)
		if ref.PlayerID == "" {
			ref.PlayerID = playerID
		}
		list, err := h.service.JoinWaiting(ctx, ref.PlayerID, ref.Name)
		if err != nil {
			client.enqueue(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		client.enqueue(outboundMessage{Type: game.EventWaitingList, Payload: list})
	case "get_waiting":
		list, err := h.service.WaitingList(ctx)
		if err != nil {
			client.enqueue(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		client.enqueue(outboundMessage{Type: game.EventWaitingList, Payload: list})
	case "get_leaderboard":
		board, err := h.service.LatestLeaderboard(ctx)
		if err != nil {
			client.enqueue(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		client.enqueue(outboundMessage{Type: game.EventLeaderboard, Payload: board})
	case "get_player_state":
		player, err := h.service.PlayerState(ctx, playerID)
		if err != nil {
			client.enqueue(outboundMessage{Type: game.EventPlayerState, Payload: errorPayload{Message: err.Error()}})
			return
		}
		client.enqueue(outboundMessage{Type: game.EventPlayerState, Payload: player})
	default:
		client.enqueue(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
	}
}
