package main

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Per-client throttle for chat and reaction floods.
const (
	chatBurst    = 8
	chatInterval = 250 // milliseconds between replenished tokens
)

type Client struct {
	conn    *websocket.Conn
	send    chan any
	id      string
	limiter *rate.Limiter
}

func serveWs(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAME: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn:    conn,
			send:    make(chan any, 8),
			id:      uuid.NewString(),
			limiter: rate.NewLimiter(rate.Limit(1000.0/chatInterval), chatBurst),
		}

		h.register <- client

		go client.writePump()
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "create_room", "join_room", "start_game",
			"select_challenge", "complete_challenge", "skip_challenge",
			"send_reaction", "chat_message", "game_chat_message",
			"leave_room":
			h.events <- inboundEvent{
				client: c,
				msg:    msg,
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// qrHandler generates a PNG QR code pointing at the join URL for an
// existing room, so players can share a session across the table.
func qrHandler(cfg *Config, registry *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code, err := normalizeRoomCode(ps.ByName("code"))
		if err != nil {
			http.Error(w, "invalid room code", http.StatusBadRequest)
			return
		}

		if registry.get(code) == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /room/:code/qr; strip trailing "/qr" for the join URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// registerGame wires up the room registry, the hub loop, and the game
// routes:
//   - /ws              → WebSocket event channel
//   - /room/:code/qr   → PNG QR code for sharing a room
func registerGame(cfg *Config, mux *httprouter.Router) {
	registry := newRegistry()
	hub := newHub(registry)

	go hub.run(cfg)
	if cfg.sessionTimeout > 0 {
		go hub.reaperLoop(cfg)
	}

	mux.GET(cfg.prefix+"/ws", serveWs(cfg, hub))
	mux.GET(cfg.prefix+"/room/:code/qr", qrHandler(cfg, registry))
}
