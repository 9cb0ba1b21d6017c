package identity

import (
	"net/http"
	"time"

	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Handler exposes token issuing to the game host
type Handler struct {
	resolver *JWTResolver
}

// NewHandler creates a new identity HTTP handler
func NewHandler(resolver *JWTResolver) *Handler {
	return &Handler{resolver: resolver}
}

// RegisterRoutes registers identity routes. Mount them behind HostKeyMiddleware.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/tokens", h.IssueToken)
}

type issueTokenRequest struct {
	PlayerID int64 `json:"player_id,string" binding:"required,gt=0"`
}

type issueTokenResponse struct {
	PlayerID  int64  `json:"player_id,string"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// IssueToken signs a token the host hands to a connecting player
func (h *Handler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(c.Request.Context()).Err(err).Msg("IssueToken: invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, expiresAt, err := h.resolver.IssueToken(req.PlayerID)
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Int64("player_id", req.PlayerID).Msg("IssueToken: failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	logger.Info(c.Request.Context()).Int64("player_id", req.PlayerID).Msg("IssueToken: success")

	c.JSON(http.StatusOK, issueTokenResponse{
		PlayerID:  req.PlayerID,
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}
