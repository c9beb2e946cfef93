package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"socialhub/internal/metrics"
	"socialhub/internal/model"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultPongWait     = 60 * time.Second
	defaultSendQueue    = 64

	maxFrameBytes = 64 << 10
)

// Admission decides whether a connection request may be upgraded.
// A non-nil error rejects it with 403.
type Admission func(r *http.Request, labels Labels) error

// GatewayConfig tunes the websocket endpoint.
type GatewayConfig struct {
	AllowedOrigins []string
	SendQueue      int
	WriteTimeout   time.Duration
	PongWait       time.Duration
	Admission      Admission
}

// Gateway upgrades HTTP requests to websocket connections and feeds inbound
// frames to the Router.
type Gateway struct {
	cfg      GatewayConfig
	upgrader websocket.Upgrader
	router   *Router
	registry *Registry
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewGateway returns a Gateway; zero config values take the package defaults.
func NewGateway(cfg GatewayConfig, router *Router, registry *Registry, m *metrics.Metrics, log *slog.Logger) *Gateway {
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = defaultSendQueue
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaultPongWait
	}

	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}

	return &Gateway{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return origin == "" || allowed[origin]
			},
		},
		router:   router,
		registry: registry,
		metrics:  m,
		log:      log,
	}
}

// ServeHTTP handles GET /ws?sender=&receiver=.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	labels := Labels{Sender: q.Get("sender"), Receiver: q.Get("receiver")}

	if g.cfg.Admission != nil {
		if err := g.cfg.Admission(r, labels); err != nil {
			g.log.Warn("ws.admission.reject",
				slog.String("remote", r.RemoteAddr),
				slog.String("error", err.Error()),
			)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		g.log.Warn("ws.upgrade.fail",
			slog.String("remote", r.RemoteAddr),
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("error", err.Error()),
		)
		return
	}

	c := newConn(ws, labels, g.cfg.SendQueue, g.cfg.WriteTimeout, g.cfg.PongWait)
	g.registry.Register(c)
	g.log.Info("ws.connect",
		slog.String("conn_id", c.ID),
		slog.String("sender", labels.Sender),
		slog.String("receiver", labels.Receiver),
		slog.Int("total", g.registry.Len()),
	)

	go c.writePump()
	g.readLoop(context.WithoutCancel(r.Context()), c)

	g.registry.Unregister(c)
	c.Close()
	g.log.Info("ws.disconnect",
		slog.String("conn_id", c.ID),
		slog.Int("total", g.registry.Len()),
	)
}

// readLoop runs until the transport fails. Bad frames and store failures are
// logged and dropped; the connection stays open.
func (g *Gateway) readLoop(ctx context.Context, c *Conn) {
	ws := c.ws
	ws.SetReadLimit(maxFrameBytes)
	_ = ws.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Debug("ws.read.fail", slog.String("conn_id", c.ID), slog.String("error", err.Error()))
			}
			return
		}

		var ev model.InboundEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			g.log.Warn("ws.decode.fail", slog.String("conn_id", c.ID), slog.String("error", err.Error()))
			continue
		}

		if _, err := g.router.Submit(ctx, metrics.IngressWebSocket, ev.Sender, ev.Receiver, ev.Message); err != nil {
			g.log.Warn("ws.submit.fail", slog.String("conn_id", c.ID), slog.String("error", err.Error()))
		}
	}
}
