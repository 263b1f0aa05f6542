package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cryptocasino-backend/internal/models"
	"cryptocasino-backend/internal/services"
)

const minWithdrawCents = models.Cents(1000) // $10.00

// PaymentHandler covers the money edges of the system: deposit charge
// creation, crypto withdrawal, and the two signed gateway webhooks.
type PaymentHandler struct {
	store       Store
	gateway     Gateway
	verifier    *services.WebhookVerifier
	reconciler  *services.Reconciler
	broadcaster services.Broadcaster
	log         *logrus.Logger
}

func NewPaymentHandler(store Store, gateway Gateway, verifier *services.WebhookVerifier, reconciler *services.Reconciler, broadcaster services.Broadcaster, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		store:       store,
		gateway:     gateway,
		verifier:    verifier,
		reconciler:  reconciler,
		broadcaster: broadcaster,
		log:         log,
	}
}

// CreateCharge opens a hosted checkout page for a deposit. The balance
// is only credited later, when the gateway reports the charge PENDING
// through the webhook.
func (h *PaymentHandler) CreateCharge(c *gin.Context) {
	email := c.GetString("email")

	var req models.CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to load user")
		return
	}

	hosted, err := h.gateway.CreateCharge(c.Request.Context(), user.Email, user.Username, models.ToCents(req.Amount))
	if err != nil {
		h.log.WithError(err).Error("charge creation failed")
		respondError(c, http.StatusBadGateway, CodeUpstreamFailed, "payment gateway error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":       hosted.Code,
		"hosted_url": hosted.HostedURL,
	})
}

func (h *PaymentHandler) ListCharges(c *gin.Context) {
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

	charges := make([]gin.H, 0, len(user.ChargeHistory))
	for _, ch := range user.ChargeHistory {
		charges = append(charges, gin.H{
			"code":      ch.Code,
			"amount":    ch.Amount.Dollars(),
			"status":    ch.Status,
			"timestamp": ch.Timestamp,
		})
	}

	c.JSON(http.StatusOK, gin.H{"charges": charges})
}

func (h *PaymentHandler) Withdraw(c *gin.Context) {
	email := c.GetString("email")

	var req models.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	amount := models.ToCents(req.Amount)
	if amount < minWithdrawCents {
		// No gateway call for sub-minimum requests.
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "withdraw amount must be at least $10.00")
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, "failed to load user")
		return
	}
	if user.Credits < amount {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "not enough credits for withdrawal")
		return
	}

	rate, err := h.gateway.USDExchangeRate(c.Request.Context(), req.Currency)
	if err != nil {
		h.log.WithError(err).Error("exchange rate lookup failed")
		respondError(c, http.StatusBadGateway, CodeUpstreamFailed, "exchange rate unavailable")
		return
	}

	cryptoAmount, err := services.CryptoAmount(amount, rate)
	if err != nil {
		respondError(c, http.StatusBadGateway, CodeUpstreamFailed, "exchange rate unavailable")
		return
	}

	idem := uuid.NewString()
	if err := h.gateway.SendMoney(c.Request.Context(), req.WalletAddress, cryptoAmount, req.Currency, idem); err != nil {
		h.log.WithError(err).Error("send money failed")
		respondError(c, http.StatusBadGateway, CodeUpstreamFailed, "payment gateway error")
		return
	}

	updated, err := h.store.UpdateUser(c.Request.Context(), email, func(u *models.User) error {
		return services.Debit(u, amount)
	})
	if err != nil {
		// The crypto left the building but the debit failed. Surface
		// loudly; this needs operator attention.
		h.log.WithError(err).WithFields(logrus.Fields{
			"email":  email,
			"amount": amount.String(),
			"idem":   idem,
		}).Error("withdrawal sent but balance debit failed")
		respondError(c, http.StatusInternalServerError, CodeInternal, "withdrawal inconsistent, contact support")
		return
	}

	h.broadcaster.BroadcastBalance(services.BalanceEvent{
		Email:   email,
		Credits: updated.Credits,
		Reason:  "withdrawal",
	})

	c.JSON(http.StatusOK, gin.H{
		"credits":       updated.Credits.Dollars(),
		"crypto_amount": cryptoAmount,
		"currency":      req.Currency,
	})
}

// CommerceNotification receives charge lifecycle webhooks from Coinbase
// Commerce. The signature is verified against the raw bytes as received,
// before any JSON parsing.
func (h *PaymentHandler) CommerceNotification(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "unreadable body")
		return
	}

	signature := c.GetHeader("X-CC-Webhook-Signature")
	if !h.verifier.VerifyCommerce(rawBody, signature) {
		h.log.Warn("commerce webhook: invalid signature")
		respondError(c, http.StatusBadRequest, CodeInvalidSignature, "invalid signature")
		return
	}

	var env models.WebhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "malformed payload")
		return
	}

	if env.LatestStatus() == "" {
		// Nothing to reconcile; acknowledge so the gateway stops
		// retrying.
		c.String(http.StatusOK, "OK")
		return
	}

	ev, err := services.ChargeEventFromEnvelope(&env)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "malformed payload")
		return
	}

	email := env.Event.Data.Metadata.Email
	if email == "" {
		respondError(c, http.StatusNotFound, CodeNotFound, "user not found")
		return
	}

	var outcome services.Outcome
	updated, err := h.store.UpdateUser(c.Request.Context(), email, func(u *models.User) error {
		outcome = h.reconciler.Apply(u, ev)
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			h.log.WithField("email", email).Warn("commerce webhook: unknown user")
			respondError(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		h.log.WithError(err).Error("commerce webhook: reconciliation failed")
		respondError(c, http.StatusInternalServerError, CodeInternal, "an error occurred")
		return
	}

	if outcome == services.OutcomeCredited {
		h.broadcaster.BroadcastBalance(services.BalanceEvent{
			Email:   email,
			Credits: updated.Credits,
			Reason:  "deposit",
		})
	}

	c.String(http.StatusOK, "OK")
}

// SendMoneyNotification receives withdrawal confirmations, signed with
// the API secret rather than the Commerce one. Events are logged only.
func (h *PaymentHandler) SendMoneyNotification(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "unreadable body")
		return
	}

	signature := c.GetHeader("X-CC-Webhook-Signature")
	if !h.verifier.VerifySendMoney(rawBody, signature) {
		h.log.Warn("send-money webhook: invalid signature")
		respondError(c, http.StatusBadRequest, CodeInvalidSignature, "invalid signature")
		return
	}

	var env models.WebhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationFailed, "malformed payload")
		return
	}

	switch env.Event.Type {
	case "charge:confirmed":
		h.log.Info("send money: confirmed")
	case "charge:pending":
		h.log.Info("send money: pending")
	default:
		h.log.WithField("type", env.Event.Type).Info("send money: ignored event")
	}

	c.String(http.StatusOK, "OK")
}
