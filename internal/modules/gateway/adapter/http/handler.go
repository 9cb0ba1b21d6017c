package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frankieli/players_bet/internal/modules/gateway/domain"
	"github.com/frankieli/players_bet/internal/modules/gateway/ws"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/frankieli/players_bet/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated players to websocket connections
type Handler struct {
	useCase  domain.GatewayUseCase
	manager  *ws.Manager
	resolver service.PlayerResolver
}

// NewHandler creates a new HTTP handler
func NewHandler(useCase domain.GatewayUseCase, manager *ws.Manager, resolver service.PlayerResolver) *Handler {
	return &Handler{
		useCase:  useCase,
		manager:  manager,
		resolver: resolver,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // game clients connect from arbitrary origins
	},
}

// RegisterRoutes mounts the websocket endpoint
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws", func(c *gin.Context) {
		h.HandleWebSocket(c.Writer, c.Request)
	})
}

// HandleWebSocket handles websocket requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WebSocketContext(r)
	requestID := logger.GetRequestID(ctx)

	logger.Info(ctx).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection request")

	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
	}
	if token == "" {
		logger.Warn(ctx).Msg("Missing token")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	playerID, err := h.resolver.ResolvePlayer(r.Context(), token)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Token validation failed")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := h.manager.Register(conn, playerID)
	if client == nil {
		conn.Close()
		return
	}

	logger.Info(ctx).
		Int64("player_id", playerID).
		Msg("WebSocket connected")

	go client.WritePump()
	go client.ReadPump(func(playerID int64, message []byte) {
		msgCtx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
		msgCtx = logger.WithFields(msgCtx, map[string]interface{}{
			"player_id":     playerID,
			"ws_request_id": requestID,
		})

		logger.Debug(msgCtx).
			Int("message_size", len(message)).
			Msg("WebSocket message received")

		response, err := h.useCase.HandleMessage(msgCtx, playerID, token, message)
		if err != nil {
			logger.Warn(msgCtx).Err(err).Msg("Message handling failed")

			errorResp, mErr := json.Marshal(domain.Envelope{
				Game:    domain.GameCode,
				Command: "error",
				Data:    map[string]interface{}{"error": err.Error()},
			})
			if mErr == nil {
				h.manager.SendToUser(playerID, errorResp)
			}
			return
		}
		if response != nil {
			h.manager.SendToUser(playerID, response)
		}
	})
}
