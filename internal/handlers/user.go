package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptocasino-backend/internal/services"
)

type UserHandler struct {
	store Store
}

func NewUserHandler(store Store) *UserHandler {
	return &UserHandler{store: store}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	email := c.GetString("email")

	user, err := h.store.GetUser(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":    user.Email,
		"username": user.Username,
		"credits":  user.Credits.Dollars(),
	})
}

func (h *UserHandler) GetBalance(c *gin.Context) {
	email := c.GetString("email")

	user, err := h.store.GetUser(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"credits": user.Credits.Dollars()})
}
