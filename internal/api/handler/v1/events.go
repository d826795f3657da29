package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Injamhossan/contest-arena/internal/api/handler/v1/response"
	"github.com/Injamhossan/contest-arena/internal/api/middleware"
	"github.com/Injamhossan/contest-arena/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientQueueLen = 64
)

type eventClient struct {
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// EventHub fans change notifications out to connected websocket clients.
// Changes carry only the subject and id, so clients refetch through the
// authorized REST endpoints.
type EventHub struct {
	upgrader   websocket.Upgrader
	clients    map[*eventClient]struct{}
	broadcast  chan []byte
	register   chan *eventClient
	unregister chan *eventClient
	done       chan struct{}
}

func NewEventHub(allowedOrigins []string) *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)
			},
		},
		clients:    make(map[*eventClient]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *eventClient),
		unregister: make(chan *eventClient),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is done.
func (h *EventHub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer. It reconnects and refetches.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Notify never blocks the caller. A dropped change only delays a refetch.
func (h *EventHub) Notify(change domain.Change) {
	message, err := json.Marshal(change)
	if err != nil {
		zap.L().Error("json.Marshal change", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- message:
	default:
		zap.L().Warn("change feed full, dropping change",
			zap.String("subject", change.Subject), zap.Uint("id", change.ID))
	}
}

// HandleEvents godoc
// @Summary      Change feed
// @Description  Websocket stream of {subject, id, kind} changes. Browsers pass the token as the token query parameter.
// @Tags         events
// @Param        token  query     string  false  "bearer token"
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  response.Err
// @Router       /events [get]
// @Security     BearerAuth
func (h *EventHub) HandleEvents(ctx *gin.Context) {
	sess := middleware.Session(ctx)
	if sess.IsZero() {
		response.RenderErr(ctx, response.ErrUnauthorized(domain.ErrUnauthorized))
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &eventClient{
		conn:   conn,
		send:   make(chan []byte, clientQueueLen),
		userID: sess.ActorID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames. The feed is one way.
func (c *eventClient) readPump(h *EventHub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("event client closed", zap.Uint("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}
