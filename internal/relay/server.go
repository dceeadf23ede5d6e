package relay

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/leviettung200/ByteDefence/internal/api/problem"
	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/domain/ids"
	"github.com/leviettung200/ByteDefence/internal/metrics"
)

// AccessKeyHeader must match notify.AccessKeyHeader.
const AccessKeyHeader = "X-Relay-Key"

const maxBroadcastBody = 1 << 20

type broadcastRequest struct {
	Method string          `json:"method"`
	Group  string          `json:"group"`
	Data   json.RawMessage `json:"data"`
}

// Server exposes a Hub over HTTP.
type Server struct {
	hub      *Hub
	cfg      config.RelayConfig
	env      string
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, cfg config.RelayConfig, env string, logger zerolog.Logger) *Server {
	s := &Server{hub: hub, cfg: cfg, env: env, logger: logger}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router wires /health, /hubs/notifications and /api/broadcast.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/health").HandlerFunc(s.health)
	r.Methods(http.MethodGet).Path("/hubs/notifications").HandlerFunc(s.serveWS)
	r.Methods(http.MethodPost).Path("/api/broadcast").HandlerFunc(s.broadcast)

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins(s.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", AccessKeyHeader}),
		handlers.AllowCredentials(),
	)(h)
	h = metrics.HTTPMiddleware("relay")(h)
	return h
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// checkOrigin accepts non-browser clients, which send no Origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimRight(allowed, "/"), u.Scheme+"://"+u.Host) {
			return true
		}
	}
	s.logger.Warn().Str("origin", origin).Msg("websocket origin rejected")
	return false
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the failure response.
		s.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	id, err := ids.NewULID()
	if err != nil {
		s.logger.Error().Err(err).Msg("allocate connection id")
		_ = ws.Close()
		return
	}
	c := newConn(id, s.hub, ws)
	s.hub.register(c)
	go c.writePump()
	go c.readPump()
}

func (s *Server) broadcast(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AccessKey != "" {
		got := r.Header.Get(AccessKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.AccessKey)) != 1 {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized",
				errors.New("missing or invalid relay key"), s.env)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBroadcastBody)
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, s.env)
		return
	}
	req.Method = strings.TrimSpace(req.Method)
	req.Group = strings.TrimSpace(req.Group)
	if req.Method == "" || req.Group == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body",
			errors.New("method and group are required"), s.env)
		return
	}

	var data any
	if len(req.Data) > 0 {
		data = req.Data
	}
	delivered := s.hub.Broadcast(req.Method, req.Group, data)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "sent", "delivered": delivered})
}
