package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/frankieli/players_bet/internal/modules/identity"
	"github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/frankieli/players_bet/pkg/service"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the wager module
type Handler struct {
	wagers    service.WagerService
	lifecycle service.RoundLifecycle
	resolver  service.PlayerResolver
	tokens    domain.SideTokens
}

// NewHandler creates a new HTTP handler
func NewHandler(wagers service.WagerService, lifecycle service.RoundLifecycle, resolver service.PlayerResolver, tokens domain.SideTokens) *Handler {
	return &Handler{
		wagers:    wagers,
		lifecycle: lifecycle,
		resolver:  resolver,
		tokens:    tokens,
	}
}

// RegisterRoutes registers player routes
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/bet", h.PlaceBet)
	router.GET("/bet", h.GetMyBet)
	router.GET("/round", h.GetRound)
	router.GET("/odds", h.GetOdds)
}

// RegisterHostRoutes registers the round lifecycle hooks the game host calls
func (h *Handler) RegisterHostRoutes(router gin.IRouter) {
	router.POST("/round/start", h.StartRound)
	router.POST("/round/end", h.EndRound)
}

// argument accepts a JSON string or number, since chat clients send "100"
// and scripts send 100
type argument string

func (a *argument) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = argument(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = argument(n.String())
	return nil
}

type placeBetRequest struct {
	Side   argument `json:"side"`
	Amount argument `json:"amount"`
}

type placeBetResponse struct {
	Wager   *domain.Wager `json:"wager"`
	Message string        `json:"message"`
}

type endRoundRequest struct {
	Winner string `json:"winner" binding:"required"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Error     string `json:"error"`
}

// rejectStatus maps each refusal to the closest HTTP status
var rejectStatus = map[domain.RejectReason]int{
	domain.ReasonInvalidPlayer:     http.StatusUnauthorized,
	domain.ReasonInvalidArgs:       http.StatusBadRequest,
	domain.ReasonSpectating:        http.StatusForbidden,
	domain.ReasonStillAlive:        http.StatusForbidden,
	domain.ReasonRoundNotActive:    http.StatusConflict,
	domain.ReasonDuplicateBet:      http.StatusConflict,
	domain.ReasonInsufficientFunds: http.StatusUnprocessableEntity,
	domain.ReasonNoOddsAvailable:   http.StatusUnprocessableEntity,
}

// PlaceBet handles a bet command from an authenticated player
func (h *Handler) PlaceBet(c *gin.Context) {
	ctx := c.Request.Context()

	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(ctx).Err(err).Msg("PlaceBet: invalid request body")
		c.JSON(http.StatusBadRequest, errorResponse{
			ErrorCode: string(domain.ReasonInvalidArgs),
			Error:     domain.Usage,
		})
		return
	}

	wager, err := h.wagers.PlaceBet(ctx, identity.BearerToken(c), string(req.Side), string(req.Amount))
	if err != nil {
		if reject, ok := domain.AsReject(err); ok {
			c.JSON(rejectStatus[reject.Reason], errorResponse{
				ErrorCode: string(reject.Reason),
				Error:     reject.Message,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{
			ErrorCode: "internal_error",
			Error:     "bet could not be processed",
		})
		return
	}

	c.JSON(http.StatusOK, placeBetResponse{
		Wager:   wager,
		Message: domain.PlacedMessage(wager),
	})
}

// GetMyBet returns the caller's wager for the current round
func (h *Handler) GetMyBet(c *gin.Context) {
	playerID, err := h.resolver.ResolvePlayer(c.Request.Context(), identity.BearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse{
			ErrorCode: string(domain.ReasonInvalidPlayer),
			Error:     "invalid token",
		})
		return
	}

	wager, ok := h.wagers.PlayerWager(playerID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no bet this round"})
		return
	}
	c.JSON(http.StatusOK, wager)
}

// GetRound returns the controller state
func (h *Handler) GetRound(c *gin.Context) {
	c.JSON(http.StatusOK, h.wagers.State())
}

// GetOdds returns current multipliers for both teams
func (h *Handler) GetOdds(c *gin.Context) {
	quote, err := h.wagers.Quote(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Msg("GetOdds: failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "odds unavailable"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

// StartRound opens betting for a new round
func (h *Handler) StartRound(c *gin.Context) {
	roundID := h.lifecycle.OnRoundStart(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"round_id": roundID})
}

// EndRound settles the round. winner is a side name or a team token.
func (h *Handler) EndRound(c *gin.Context) {
	ctx := c.Request.Context()

	var req endRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	winner, ok := domain.ParseSideName(req.Winner)
	if !ok {
		if winner, ok = h.tokens.Parse(req.Winner); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown winner " + req.Winner})
			return
		}
	}

	settlement, err := h.lifecycle.OnRoundEnd(ctx, winner)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("EndRound: settlement failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settlement failed, retry"})
		return
	}
	c.JSON(http.StatusOK, settlement)
}
