package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptocasino-backend/internal/handlers"
	"cryptocasino-backend/internal/models"
	"cryptocasino-backend/internal/services"
)

func newGameFixture(t *testing.T, credits models.Cents) (*handlers.GameHandler, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	require.NoError(t, store.CreateUser(context.Background(), &models.User{
		Email:    "alice@example.com",
		Username: "alice",
		Credits:  credits,
	}))
	require.NoError(t, store.SaveSession(context.Background(), &models.Session{
		ID:    "session-1",
		Email: "alice@example.com",
	}))
	h := handlers.NewGameHandler(store, services.NoopBroadcaster{}, quietLogger())
	return h, store
}

func TestSettleComputesWin(t *testing.T) {
	h, store := newGameFixture(t, 500)

	c, w := authedRequest(t, http.MethodPost, "/api/settle", models.SettleRequest{
		Bet:   0.25,
		Lines: []models.SlotLine{{Pay: 2}, {Pay: 0}, {Pay: 5}},
	}, "alice@example.com", "session-1")
	h.Settle(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, 1.75, body["win"])
	assert.Equal(t, 6.75, body["credits"])

	user, err := store.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(675), user.Credits)
}

func TestSettleZeroWinStillSettles(t *testing.T) {
	h, store := newGameFixture(t, 500)

	c, w := authedRequest(t, http.MethodPost, "/api/settle", models.SettleRequest{
		Bet:   0.25,
		Lines: []models.SlotLine{{Pay: 0}},
	}, "alice@example.com", "session-1")
	h.Settle(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, 0.0, body["win"])

	user, err := store.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(500), user.Credits)
}

func TestSettleRejectsTamperedWager(t *testing.T) {
	h, store := newGameFixture(t, 500)

	c, w := authedRequest(t, http.MethodPost, "/api/settle", models.SettleRequest{
		Bet:   0.37,
		Lines: []models.SlotLine{{Pay: 2}},
	}, "alice@example.com", "session-1")
	h.Settle(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, handlers.CodeTampering, decodeBody(t, w)["code"])

	// Session destroyed, nothing credited.
	_, err := store.GetSession(context.Background(), "session-1")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)

	user, err := store.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(500), user.Credits)
}

func TestSettleRejectsNegativeLines(t *testing.T) {
	h, store := newGameFixture(t, 500)

	c, w := authedRequest(t, http.MethodPost, "/api/settle", models.SettleRequest{
		Bet:   0.25,
		Lines: []models.SlotLine{{Pay: -3}},
	}, "alice@example.com", "session-1")
	h.Settle(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	user, err := store.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(500), user.Credits)
}

func TestPlaceBetDebits(t *testing.T) {
	h, store := newGameFixture(t, 100)

	c, w := authedRequest(t, http.MethodPost, "/api/bet", models.BetRequest{Bet: 0.25},
		"alice@example.com", "session-1")
	h.PlaceBet(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.75, decodeBody(t, w)["credits"])

	user, err := store.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(75), user.Credits)
}

func TestPlaceBetInsufficientBalance(t *testing.T) {
	h, store := newGameFixture(t, 10)

	c, w := authedRequest(t, http.MethodPost, "/api/bet", models.BetRequest{Bet: 0.25},
		"alice@example.com", "session-1")
	h.PlaceBet(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeValidationFailed, decodeBody(t, w)["code"])

	user, err := store.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(10), user.Credits)
}

func TestPlaceBetRejectsOffListWager(t *testing.T) {
	h, store := newGameFixture(t, 500)

	c, w := authedRequest(t, http.MethodPost, "/api/bet", models.BetRequest{Bet: 0.37},
		"alice@example.com", "session-1")
	h.PlaceBet(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, err := store.GetSession(context.Background(), "session-1")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestRegisterWinRejectsNegativeAmount(t *testing.T) {
	h, store := newGameFixture(t, 100)

	c, w := authedRequest(t, http.MethodPost, "/api/win", models.WinRequest{Win: -1.75},
		"alice@example.com", "session-1")
	h.RegisterWin(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeValidationFailed, decodeBody(t, w)["code"])

	user, err := store.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(100), user.Credits)
}

func TestRegisterWinCredits(t *testing.T) {
	h, store := newGameFixture(t, 100)

	c, w := authedRequest(t, http.MethodPost, "/api/win", models.WinRequest{Win: 1.75},
		"alice@example.com", "session-1")
	h.RegisterWin(c)

	require.Equal(t, http.StatusOK, w.Code)

	user, err := store.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(275), user.Credits)
}
