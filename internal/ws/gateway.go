// Package ws is the connection gateway: it upgrades HTTP requests,
// authenticates the handshake credential, binds the connection to its
// user's broadcast group, and dispatches inbound events to the messaging
// engine and the call relay.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ayanasamuel8/chat-backend/internal/auth"
	"github.com/ayanasamuel8/chat-backend/internal/call"
	"github.com/ayanasamuel8/chat-backend/internal/hub"
	"github.com/ayanasamuel8/chat-backend/internal/metrics"
	"github.com/ayanasamuel8/chat-backend/internal/presence"
	"github.com/ayanasamuel8/chat-backend/internal/service"
	"github.com/ayanasamuel8/chat-backend/internal/store"
	"github.com/ayanasamuel8/chat-backend/internal/wire"
)

const authHeaderLocal = "auth_header"

// Options tune the connection pumps.
type Options struct {
	PingInterval  time.Duration
	WriteDeadline time.Duration
	PongWait      time.Duration
	MaxMessage    int64
	RatePerSecond int
}

type Gateway struct {
	hub      *hub.Hub
	engine   *service.Engine
	relay    *call.Relay
	presence *presence.Store // optional
	verifier *auth.Verifier
	opts     Options
	met      *metrics.Metrics
	log      *zap.SugaredLogger
}

func NewGateway(h *hub.Hub, engine *service.Engine, relay *call.Relay, pres *presence.Store, verifier *auth.Verifier, opts Options, met *metrics.Metrics, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		hub:      h,
		engine:   engine,
		relay:    relay,
		presence: pres,
		verifier: verifier,
		opts:     opts,
		met:      met,
		log:      log,
	}
}

// Upgrade is the fiber middleware in front of the websocket handler. The
// Authorization header is stashed in locals so the handler can fall back
// to it when no token query parameter is present.
func (g *Gateway) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals(authHeaderLocal, c.Get(fiber.HeaderAuthorization))
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle runs one connection: authenticate, bind, pump, dispatch, clean up.
func (g *Gateway) Handle(conn *websocket.Conn) {
	userID, err := g.authenticate(conn)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	client := hub.NewClient(conn, userID)
	g.hub.Register(client)
	g.met.Connections.Inc()
	g.log.Infow("connection bound", "user_id", userID, "socket_id", client.ID)

	if g.presence != nil {
		if err := g.presence.AddConnection(context.Background(), userID, client.ID); err != nil {
			g.log.Warnw("presence add failed", "user_id", userID, "err", err)
		}
	}

	go client.WritePump(g.opts.PingInterval, g.opts.WriteDeadline)
	g.readLoop(conn, client)

	g.hub.Unregister(client)
	g.met.Connections.Dec()
	client.Close()
	if g.presence != nil {
		if err := g.presence.RemoveConnection(context.Background(), userID, client.ID); err != nil {
			g.log.Warnw("presence remove failed", "user_id", userID, "err", err)
		}
	}
	g.log.Infow("connection closed", "user_id", userID, "socket_id", client.ID)
}

// authenticate resolves the handshake credential to a user id. The token
// comes from the "token" query parameter or the Authorization header.
func (g *Gateway) authenticate(conn *websocket.Conn) (string, error) {
	token := conn.Query("token")
	if token == "" {
		if header, _ := conn.Locals(authHeaderLocal).(string); header != "" {
			var err error
			if token, err = auth.FromBearer(header); err != nil {
				return "", err
			}
		}
	}
	return g.verifier.Verify(token)
}

func (g *Gateway) readLoop(conn *websocket.Conn, client *hub.Client) {
	conn.SetReadLimit(g.opts.MaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(g.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.opts.PongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(g.opts.RatePerSecond), g.opts.RatePerSecond)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		if !limiter.Allow() {
			continue
		}

		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		g.dispatch(client, env)
	}
}

// dispatch handles one inbound envelope on the connection's read loop,
// preserving per-connection arrival order. Failures are reported back to
// the offending connection only.
func (g *Gateway) dispatch(client *hub.Client, env wire.Envelope) {
	ctx := context.Background()
	userID := client.UserID

	switch env.Type {
	case wire.EvMessageSend:
		var p wire.MessageSend
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			g.sendErr(client, env.Type, service.ErrInvalidMediaType)
			return
		}
		if _, err := g.engine.SendMessage(ctx, userID, p.ChatID, p.Content, store.MediaType(p.MediaType)); err != nil {
			g.log.Warnw("send message failed", "user_id", userID, "chat_id", p.ChatID, "err", err)
			g.sendErr(client, env.Type, err)
		}

	case wire.EvChatRead:
		var p wire.ChatRead
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if err := g.engine.MarkChatRead(ctx, userID, p.ChatID); err != nil {
			g.log.Warnw("mark chat read failed", "user_id", userID, "chat_id", p.ChatID, "err", err)
			g.sendErr(client, env.Type, err)
		}

	case wire.EvChatTyping:
		var p wire.ChatTyping
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		g.engine.Typing(ctx, userID, p.ChatID)

	case wire.EvCallInitiate:
		var p wire.CallInitiate
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		g.relay.Initiate(userID, p)

	case wire.EvCallAccept:
		var p wire.CallAccept
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		g.relay.Accept(userID, p)

	case wire.EvCallICECandidate:
		var p wire.CallICECandidate
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		g.relay.ICECandidate(userID, p)

	case wire.EvCallReject:
		var p wire.CallReject
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		g.relay.Reject(userID, p)

	case wire.EvCallEnd:
		var p wire.CallEnd
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		g.relay.End(userID, p)

	default:
		// unknown event types are ignored
	}
}

func (g *Gateway) sendErr(client *hub.Client, eventType string, err error) {
	code := "internal"
	msg := "operation failed"
	switch {
	case errors.Is(err, store.ErrNotFound):
		code, msg = "not_found", "chat not found"
	case errors.Is(err, service.ErrNotParticipant):
		code, msg = "unauthorized", "not a participant of this chat"
	case errors.Is(err, service.ErrEmptyContent), errors.Is(err, service.ErrInvalidMediaType):
		code, msg = "validation", err.Error()
	}
	client.Enqueue(wire.Marshal(wire.EvError, wire.Error{Code: code, Message: eventType + ": " + msg}))
}
