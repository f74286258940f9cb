// Package ws exposes the ordering dialogue over a WebSocket endpoint.
//
// Wire protocol (one JSON object per WebSocket text frame):
//
//	inbound:  {"event": "client:select", "data": "<payload>"}
//	          {"event": "client:text",   "data": "<free text>"}
//	outbound: {"event": "server:messages", "data": [<message>, ...]}
//
// The session is identified by the "sid" query parameter; it survives
// reconnects because the widget persists it in local storage.
package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lorenzogtrrz/orderchat/internal/chat"
)

const (
	eventSelect   = "client:select"
	eventText     = "client:text"
	eventMessages = "server:messages"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	maxFrameSize = 4 << 10
)

// Handler upgrades HTTP requests to WebSocket connections and pumps events
// between the connection and the dialogue engine.
type Handler struct {
	engine   *chat.Engine
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler. allowedOrigins mirrors the CORS
// configuration: empty or "*" accepts any origin, otherwise the Origin
// header must match one of the entries (case-insensitive).
func NewHandler(engine *chat.Engine, allowedOrigins []string) *Handler {
	checkOrigin := originChecker(allowedOrigins)
	return &Handler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	sid := r.URL.Query().Get("sid")
	if sid == "" {
		// The widget always sends one; tolerate its absence so a plain
		// websocket client still gets a working, if amnesiac, session.
		sid = uuid.New().String()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		lg.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &connection{
		conn:   conn,
		engine: h.engine,
		sid:    sid,
		lg:     lg.With(zap.String("sid", sid)),
	}
	c.serve(ctx)
}

// connection is one live chat connection. All writes go through send, which
// serializes frames with writeMu: the read loop and the ping ticker are the
// only writers.
type connection struct {
	conn    *websocket.Conn
	engine  *chat.Engine
	sid     string
	lg      *zap.Logger
	writeMu sync.Mutex
}

func (c *connection) serve(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go c.pingLoop(pingCtx)

	// Greet the participant before any input, like the original bot does.
	if err := c.sendMessages(c.engine.Greet(c.sid)); err != nil {
		c.lg.Debug("greeting write failed", zap.Error(err))
		return
	}

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.lg.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		event, data, err := decodeEnvelope(frame)
		if err != nil {
			c.lg.Debug("bad frame", zap.Error(err))
			continue
		}

		msgs, err := c.step(ctx, event, data)
		if err != nil {
			// Collaborator failure: the session is untouched, tell the
			// participant to retry instead of dropping the conversation.
			c.lg.Error("dialogue step failed", zap.String("event", event), zap.Error(err))
			msgs = []chat.Message{chat.Text("Desculpe, estamos com um problema técnico. Tente novamente em instantes.")}
		}
		if len(msgs) == 0 {
			continue
		}
		if err := c.sendMessages(msgs); err != nil {
			c.lg.Debug("write failed", zap.Error(err))
			return
		}
	}
}

func (c *connection) step(ctx context.Context, event, data string) ([]chat.Message, error) {
	switch event {
	case eventSelect:
		return c.engine.HandleSelect(ctx, c.sid, data)
	case eventText:
		return c.engine.HandleText(ctx, c.sid, data)
	default:
		// Unknown event names are ignored rather than answered, so protocol
		// additions don't confuse older servers.
		return nil, nil
	}
}

func (c *connection) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// sendMessages writes one server:messages frame carrying the ordered
// message list.
func (c *connection) sendMessages(msgs []chat.Message) error {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("event")
	e.Str(eventMessages)
	e.FieldStart("data")
	chat.EncodeMessages(&e, msgs)
	e.ObjEnd()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, e.Bytes())
}

// decodeEnvelope parses an inbound frame into its event name and string
// payload.
func decodeEnvelope(frame []byte) (event, data string, err error) {
	d := jx.DecodeBytes(frame)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "event":
			v, err := d.Str()
			event = v
			return err
		case "data":
			v, err := d.Str()
			data = v
			return err
		default:
			return d.Skip()
		}
	})
	return event, data, err
}

func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
			break
		}
		set[strings.ToLower(o)] = struct{}{}
	}
	if allowAll {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}
