package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/frankieli/players_bet/internal/modules/roster/domain"
	wagerDomain "github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Handler receives live status pushes from the game host
type Handler struct {
	store domain.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(store domain.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers roster routes. Mount them behind the host key.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/players", h.List)
	router.PUT("/players", h.Replace)
	router.PUT("/players/:id", h.Upsert)
	router.DELETE("/players/:id", h.Remove)
}

type statusRequest struct {
	Side      wagerDomain.Side `json:"side"`
	Connected bool             `json:"connected"`
	Alive     bool             `json:"alive"`
}

type replaceEntry struct {
	PlayerID int64 `json:"player_id,string"`
	statusRequest
}

func parsePlayerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return 0, false
	}
	return id, true
}

// List returns the current snapshot
func (h *Handler) List(c *gin.Context) {
	roster, err := h.store.Snapshot(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Msg("Roster List: failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "roster unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": roster})
}

// Upsert records one player's status
func (h *Handler) Upsert(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(c.Request.Context()).Err(err).Msg("Roster Upsert: invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := wagerDomain.RosterEntry{
		PlayerID:  playerID,
		Side:      req.Side,
		Connected: req.Connected,
		Alive:     req.Alive,
	}
	if err := h.store.Upsert(c.Request.Context(), entry); err != nil {
		h.writeError(c, err)
		return
	}

	logger.Debug(c.Request.Context()).
		Int64("player_id", playerID).
		Str("side", req.Side.String()).
		Bool("connected", req.Connected).
		Bool("alive", req.Alive).
		Msg("Roster entry updated")
	c.JSON(http.StatusOK, entry)
}

// Replace swaps in a full roster, used when the host resyncs
func (h *Handler) Replace(c *gin.Context) {
	var req []replaceEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(c.Request.Context()).Err(err).Msg("Roster Replace: invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roster := make(wagerDomain.Roster, 0, len(req))
	for _, e := range req {
		roster = append(roster, wagerDomain.RosterEntry{
			PlayerID:  e.PlayerID,
			Side:      e.Side,
			Connected: e.Connected,
			Alive:     e.Alive,
		})
	}
	if err := h.store.Replace(c.Request.Context(), roster); err != nil {
		h.writeError(c, err)
		return
	}

	logger.Info(c.Request.Context()).Int("players", len(roster)).Msg("Roster replaced")
	c.JSON(http.StatusOK, gin.H{"players": len(roster)})
}

// Remove drops a player who left the match
func (h *Handler) Remove(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}
	if err := h.store.Remove(c.Request.Context(), playerID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidEntry) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger.Error(c.Request.Context()).Err(err).Msg("Roster store failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "roster unavailable"})
}
