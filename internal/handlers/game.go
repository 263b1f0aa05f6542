package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cryptocasino-backend/internal/models"
	"cryptocasino-backend/internal/services"
)

// GameHandler owns the balance-mutating game endpoints: bet debit, win
// credit, and slot-line settlement. Bet and settlement are independent
// requests; there is no atomic wager-then-settle transaction. The server
// recomputes the win from the submitted line multipliers, clamped to the
// server paytable, rather than trusting a client-computed total.
type GameHandler struct {
	store       Store
	broadcaster services.Broadcaster
	log         *logrus.Logger
}

func NewGameHandler(store Store, broadcaster services.Broadcaster, log *logrus.Logger) *GameHandler {
	return &GameHandler{
		store:       store,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	email := c.GetString("email")

	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "an error occurred")
		return
	}

	wager := models.ToCents(req.Bet)
	if !services.ValidWager(wager) {
		h.forceLogout(c, wager)
		return
	}

	h.log.WithFields(logrus.Fields{"email": email, "bet": wager.String()}).Info("bet placed")

	user, err := h.store.UpdateUser(c.Request.Context(), email, func(u *models.User) error {
		return services.Debit(u, wager)
	})
	if err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credits": user.Credits.Dollars()})
}

func (h *GameHandler) RegisterWin(c *gin.Context) {
	email := c.GetString("email")

	var req models.WinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "an error occurred")
		return
	}

	win := models.ToCents(req.Win)
	if win < 0 {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "win amount must not be negative")
		return
	}

	h.log.WithFields(logrus.Fields{"email": email, "win": win.String()}).Info("win registered")

	user, err := h.store.UpdateUser(c.Request.Context(), email, func(u *models.User) error {
		return services.Credit(u, win)
	})
	if err != nil {
		h.respondMutationError(c, err)
		return
	}

	h.broadcaster.BroadcastBalance(services.BalanceEvent{
		Email:   email,
		Credits: user.Credits,
		Reason:  "win",
	})

	c.JSON(http.StatusOK, gin.H{"credits": user.Credits.Dollars()})
}

// Settle credits the computed win for one game round. The matching bet
// debit happened in an earlier request.
func (h *GameHandler) Settle(c *gin.Context) {
	email := c.GetString("email")

	var req models.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "an error occurred")
		return
	}

	wager := models.ToCents(req.Bet)
	if !services.ValidWager(wager) {
		h.forceLogout(c, wager)
		return
	}

	win, err := services.ComputeWin(wager, req.Lines)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "invalid line payouts")
		return
	}

	user, err := h.store.UpdateUser(c.Request.Context(), email, func(u *models.User) error {
		return services.Credit(u, win)
	})
	if err != nil {
		h.respondMutationError(c, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"email":   email,
		"bet":     wager.String(),
		"win":     win.String(),
		"credits": user.Credits.String(),
	}).Info("round settled")

	if win > 0 {
		h.broadcaster.BroadcastBalance(services.BalanceEvent{
			Email:   email,
			Credits: user.Credits,
			Reason:  "settlement",
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"win":     win.Dollars(),
		"credits": user.Credits.Dollars(),
	})
}

// forceLogout handles a wager outside the allow-list: the value cannot
// come from an unmodified client, so the session is terminated instead
// of returning a plain validation error.
func (h *GameHandler) forceLogout(c *gin.Context, wager models.Cents) {
	h.log.WithFields(logrus.Fields{
		"email": c.GetString("email"),
		"wager": wager.String(),
	}).Warn("wager outside allow-list, terminating session")

	if sessionID := c.GetString("session_id"); sessionID != "" {
		if err := h.store.DeleteSession(c.Request.Context(), sessionID); err != nil {
			h.log.WithError(err).Error("failed to destroy session")
		}
	}

	respondError(c, http.StatusUnauthorized, CodeTampering, "session terminated")
}

func (h *GameHandler) respondMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, "user not found")
	case errors.Is(err, services.ErrInsufficientBalance):
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "not enough credits")
	default:
		respondError(c, http.StatusInternalServerError, CodeInternal, "an error occurred")
	}
}
