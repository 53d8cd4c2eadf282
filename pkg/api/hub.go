package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Frame is one websocket message
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// hub fans frames out to every connected websocket client. Slow clients
// drop frames rather than block the MIDI path.
type hub struct {
	mu      sync.Mutex
	clients map[string]*client
	log     *logrus.Entry
}

func newHub() *hub {
	return &hub{
		clients: make(map[string]*client),
		log:     logrus.WithField("component", "ws"),
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(kind string, data any) {
	h.mu.Lock()
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	payload, err := json.Marshal(Frame{Type: kind, Data: data})
	if err != nil {
		h.log.WithError(err).Warn("failed to encode frame")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.WithField("client", c.id).Debug("frame dropped")
		}
	}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

// serve upgrades the request and pumps frames until the client leaves.
// initial frames are queued before any broadcast.
func (h *hub) serve(c *gin.Context, initial ...Frame) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	cl := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	for _, f := range initial {
		if payload, err := json.Marshal(f); err == nil {
			cl.send <- payload
		}
	}

	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	h.log.WithField("client", cl.id).Info("client connected")

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *hub) readPump(cl *client) {
	defer func() {
		h.remove(cl)
		_ = cl.conn.Close()
		h.log.WithField("client", cl.id).Info("client disconnected")
	}()
	cl.conn.SetReadLimit(4096)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
