package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"cryptocasino-backend/internal/models"
	"cryptocasino-backend/internal/services"
)

type AuthHandler struct {
	store           Store
	jwtService      *services.JWTService
	captcha         *services.CaptchaService
	log             *logrus.Logger
	startingBalance models.Cents
}

func NewAuthHandler(store Store, jwtService *services.JWTService, captcha *services.CaptchaService, log *logrus.Logger, startingBalance models.Cents) *AuthHandler {
	return &AuthHandler{
		store:           store,
		jwtService:      jwtService,
		captcha:         captcha,
		log:             log,
		startingBalance: startingBalance,
	}
}

// Captcha issues a challenge. The answer is stored server-side keyed by
// the challenge id and consumed on first verification attempt.
func (h *AuthHandler) Captcha(c *gin.Context) {
	ch, err := h.captcha.Generate()
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to generate captcha")
		return
	}

	if err := h.store.SaveCaptcha(c.Request.Context(), ch.ID, ch.Answer); err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to store captcha")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"captcha_id": ch.ID,
		"image":      ch.Image,
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	ok, err := h.store.CheckCaptcha(c.Request.Context(), req.CaptchaID, req.Captcha)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "captcha check failed")
		return
	}
	if !ok {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "captcha verification failed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to hash password")
		return
	}

	user := &models.User{
		Email:        req.Email,
		Username:     models.UsernameFromEmail(req.Email),
		PasswordHash: string(hash),
		Credits:      h.startingBalance,
		CreatedAt:    time.Now().Unix(),
	}

	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, services.ErrDuplicateUser) {
			respondError(c, http.StatusBadRequest, CodeValidationFailed, "user already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to create user")
		return
	}

	h.log.WithField("username", user.Username).Info("new user")

	h.issueSession(c, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	ok, err := h.store.CheckCaptcha(c.Request.Context(), req.CaptchaID, req.Captcha)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "captcha check failed")
		return
	}
	if !ok {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "captcha verification failed")
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), req.Email)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		// One message for both a missing user and a wrong password.
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "invalid email or password")
		return
	}

	h.issueSession(c, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetString("session_id")
	if sessionID == "" {
		respondError(c, http.StatusUnauthorized, CodeUnauthenticated, "no active session")
		return
	}

	if err := h.store.DeleteSession(c.Request.Context(), sessionID); err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to log out")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

func (h *AuthHandler) issueSession(c *gin.Context, user *models.User) {
	session := &models.Session{
		ID:           uuid.NewString(),
		Email:        user.Email,
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}
	if err := h.store.SaveSession(c.Request.Context(), session); err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to create session")
		return
	}

	token, err := h.jwtService.GenerateToken(user.Email, session.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"email":    user.Email,
			"username": user.Username,
			"credits":  user.Credits.Dollars(),
		},
	})
}
