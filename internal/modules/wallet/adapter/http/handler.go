package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/frankieli/players_bet/internal/modules/identity"
	"github.com/frankieli/players_bet/internal/modules/wallet/domain"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/frankieli/players_bet/pkg/service"
	"github.com/gin-gonic/gin"
)

// Handler exposes balances to players and account setup to the host
type Handler struct {
	wallet          service.WalletService
	admin           domain.AccountAdmin
	resolver        service.PlayerResolver
	startingBalance int64
}

// NewHandler creates a new HTTP handler
func NewHandler(wallet service.WalletService, admin domain.AccountAdmin, resolver service.PlayerResolver, startingBalance int64) *Handler {
	return &Handler{
		wallet:          wallet,
		admin:           admin,
		resolver:        resolver,
		startingBalance: startingBalance,
	}
}

// RegisterRoutes registers player routes
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/balance", h.GetBalance)
}

// RegisterHostRoutes registers account setup routes
func (h *Handler) RegisterHostRoutes(router gin.IRouter) {
	router.POST("/accounts/:id", h.OpenAccount)
}

type balanceResponse struct {
	PlayerID int64 `json:"player_id,string"`
	Balance  int64 `json:"balance"`
}

type openAccountRequest struct {
	Balance *int64 `json:"balance"`
}

// GetBalance returns the caller's balance
func (h *Handler) GetBalance(c *gin.Context) {
	ctx := c.Request.Context()
	playerID, err := h.resolver.ResolvePlayer(ctx, identity.BearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	balance, err := h.wallet.GetBalance(ctx, playerID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error(ctx).Err(err).Int64("player_id", playerID).Msg("GetBalance: failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet unavailable"})
		return
	}
	c.JSON(http.StatusOK, balanceResponse{PlayerID: playerID, Balance: balance})
}

// OpenAccount opens or resets an account. Without a balance in the body the
// configured starting balance is granted.
func (h *Handler) OpenAccount(c *gin.Context) {
	ctx := c.Request.Context()
	playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || playerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	var req openAccountRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	balance := h.startingBalance
	if req.Balance != nil {
		balance = *req.Balance
	}

	if err := h.admin.SetBalance(ctx, playerID, balance); err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error(ctx).Err(err).Int64("player_id", playerID).Msg("OpenAccount: failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet unavailable"})
		return
	}

	logger.Info(ctx).Int64("player_id", playerID).Int64("balance", balance).Msg("Account opened")
	c.JSON(http.StatusOK, balanceResponse{PlayerID: playerID, Balance: balance})
}
