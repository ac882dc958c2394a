package live

import (
	"errors"
	"net/http"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/middleware"
	"courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 4096
)

type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	users    middleware.UserLoader
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler accepts websocket connections from allowedOrigins; an empty
// list allows any origin. Viewers are reloaded through users and must be ACTIVE.
func NewHandler(hub *Hub, jwtService *jwt.Service, users middleware.UserLoader, allowedOrigins []string, log *zap.Logger) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &Handler{
		hub:   hub,
		jwt:   jwtService,
		users: users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
		log: log,
	}
}

func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/ws/calendar", h.Calendar)
}

// Calendar streams booking events. Browsers cannot set headers on a
// websocket handshake, so the token comes as ?token=. An optional ?date=
// narrows the stream to one day.
func (h *Handler) Calendar(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required")
		return
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User no longer exists")
			return
		}
		h.log.Error("load calendar viewer failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "Could not load user")
		return
	}
	if !u.Identity().IsActive() {
		response.Error(c, http.StatusForbidden, "ACCOUNT_NOT_ACTIVE", "Account is "+string(u.Status))
		return
	}

	date := domain.DateStamp(c.Query("date"))
	if date != "" && !date.Valid() {
		response.Error(c, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := h.hub.register(claims.UserID, date)
	h.log.Debug("calendar viewer connected", zap.Int64("user_id", claims.UserID), zap.String("date", string(date)))

	go h.writePump(conn, cl)
	h.readPump(conn, cl)
}

func (h *Handler) writePump(conn *websocket.Conn, cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and unregisters on disconnect.
func (h *Handler) readPump(conn *websocket.Conn, cl *client) {
	defer func() {
		h.hub.unregister(cl)
		_ = conn.Close()
		h.log.Debug("calendar viewer disconnected", zap.Int64("user_id", cl.userID))
	}()

	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read error", zap.Int64("user_id", cl.userID), zap.Error(err))
			}
			return
		}
	}
}
