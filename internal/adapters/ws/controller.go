package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/codepals/collab/internal/app"
	"github.com/codepals/collab/internal/core"
	"github.com/codepals/collab/internal/event"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller accepts websocket connections, feeds inbound frames to
// the router, and drains the per-connection send queue.
type Controller struct {
	Router     *app.Router
	ReadLimit  int64
	SendBuffer int
	PingPeriod time.Duration
	Limiter    *EventRateLimiter
}

func NewController(router *app.Router, readLimit int64, sendBuffer int, pingPeriod time.Duration, limiter *EventRateLimiter) *Controller {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &Controller{
		Router:     router,
		ReadLimit:  readLimit,
		SendBuffer: sendBuffer,
		PingPeriod: pingPeriod,
		Limiter:    limiter,
	}
}

// Handle upgrades the request and runs the connection until it drops.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	wsc, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		wsc.SetReadLimit(ctl.ReadLimit)
	}

	id := core.ConnID(uuid.NewString())
	conn := newConn(id, wsc, ctl.SendBuffer)
	log.Info().Str("module", "ws").Str("conn", string(id)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	ctl.Router.Registry.Bind(conn, cancel)

	// Handshake before any join; carries no session semantics.
	if frame, err := event.Marshal(event.NewWelcome()); err == nil {
		_ = conn.TrySend(frame)
	}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, conn)
}

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("conn", string(c.id)).Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Str("conn", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(c.id)).Msg("readPump closing")
		c.Close()
		if ctl.Limiter != nil {
			ctl.Limiter.Forget(c.id)
		}
		// Also covers abrupt network drops, not only leave-session.
		ctl.Router.OnDisconnect(c.id)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("conn", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("readPump read error")
				return
			}
			if ctl.Limiter != nil && !ctl.Limiter.Allow(c.id) {
				log.Warn().Str("module", "ws").Str("conn", string(c.id)).Msg("event rate limit exceeded, dropped")
				continue
			}
			ctl.Router.HandleEvent(c, data)
		}
	}
}
