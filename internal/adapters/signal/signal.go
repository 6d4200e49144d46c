package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/config"
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ClientTokenKey is the gin context key holding the browser's participant token.
const ClientTokenKey = "client_token"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

type Settings struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	CreateLimit    int
	CreateInterval time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		WriteWait:      cfg.WriteWait,
		SendBuffer:     cfg.SendBuffer,
		CreateLimit:    cfg.CreateLimit,
		CreateInterval: cfg.CreateInterval,
	}
}

// pongWait is how long a silent peer is tolerated. It must exceed PingPeriod.
func (s Settings) pongWait() time.Duration {
	return s.PingPeriod * 10 / 9
}

type SignalWSController struct {
	Orch     *app.Orchestrator
	settings Settings
	limiter  *RoomRateLimiter
	validate *validator.Validate
}

func NewSignalWSController(orch *app.Orchestrator, settings Settings) *SignalWSController {
	return &SignalWSController{
		Orch:     orch,
		settings: settings,
		limiter:  NewRoomRateLimiter(settings.CreateLimit, settings.CreateInterval),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops accepting frames. The write pump flushes what is queued, sends
// a close frame and then closes the socket.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// client is what the read loop knows about one socket.
type client struct {
	id    core.ConnID
	token domain.ParticipantID
	conn  *WsSignalConn
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the socket until it closes or
// ctx ends. ctx must outlive the request, the pumps keep running after the
// handler returns.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := domain.SanitizeParticipantID(c.GetString(ClientTokenKey))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.settings.SendBuffer),
	}
	cl := &client{id: core.ConnID(uuid.NewString()), token: token, conn: conn}
	log.Info().Str("module", "signal").Str("conn", string(cl.id)).Str("token", string(token)).Msg("new WS connection")

	if err := ctl.Orch.Connect(ctx, cl.id, conn); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(cl.id)).Msg("connect")
		conn.Close()
		_ = ws.Close()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cl)
}
