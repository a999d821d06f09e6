package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/telemed/internal/app/orch"
	"github.com/dkeye/telemed/internal/config"
	"github.com/dkeye/telemed/internal/core"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Options tune every connection served by a controller.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
	RPS        float64
	Burst      int
	// CheckOrigin defaults to allowing every origin. Handshakes that rely
	// on the cookie session are origin-checked by the HTTP layer before
	// HandleSignal is called; token handshakes need no origin check.
	CheckOrigin func(r *http.Request) bool
}

func OptionsFrom(cfg *config.Config) Options {
	return Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait(),
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
		RPS:        cfg.RateLimit.WSRPS,
		Burst:      cfg.RateLimit.WSBurst,
	}
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	opts     Options
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &SignalWSController{
		Orch: o,
		opts: opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin,
		},
	}
}

// WsSignalConn is the gorilla-backed core.SignalConnection. Only writePump
// writes to the socket; everything else goes through TrySend.
type WsSignalConn struct {
	id        core.ConnID
	conn      *websocket.Conn
	send      chan core.Frame
	principal domain.UserID
	limiter   *rate.Limiter

	mu     sync.RWMutex
	closed bool
}

var _ core.SignalConnection = (*WsSignalConn)(nil)

func (c *WsSignalConn) ID() core.ConnID { return c.id }

// Principal is the verified identity from the handshake, empty when the
// connection was opened without a token.
func (c *WsSignalConn) Principal() domain.UserID { return c.principal }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close is idempotent.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and serves the connection until the
// peer goes away or ctx is cancelled. principal may be empty.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, principal domain.UserID) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		id:        core.ConnID(uuid.NewString()),
		conn:      ws,
		send:      make(chan core.Frame, ctl.opts.SendBuffer),
		principal: principal,
		limiter:   newConnLimiter(ctl.opts.RPS, ctl.opts.Burst),
	}
	log.Info().
		Str("module", "signal").
		Str("cid", string(conn.id)).
		Str("principal", string(principal)).
		Str("remote", c.ClientIP()).
		Msg("new WS connection")

	stop := context.AfterFunc(ctx, conn.Close)

	go ctl.writePump(conn)
	go ctl.readPump(conn, stop)
}
