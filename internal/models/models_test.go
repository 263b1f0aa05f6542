package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptocasino-backend/internal/models"
)

func TestToCents(t *testing.T) {
	assert.Equal(t, models.Cents(25), models.ToCents(0.25))
	assert.Equal(t, models.Cents(175), models.ToCents(1.75))
	assert.Equal(t, models.Cents(1000), models.ToCents(10.00))
	// Normalization at the boundary rounds half away from zero.
	assert.Equal(t, models.Cents(13), models.ToCents(0.125))
	assert.Equal(t, models.Cents(-13), models.ToCents(-0.125))
	assert.Equal(t, models.Cents(10), models.ToCents(0.1+0.2-0.2))
}

func TestParseUSD(t *testing.T) {
	c, err := models.ParseUSD("10.00")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(1000), c)

	c, err = models.ParseUSD("0.37")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(37), c)

	_, err = models.ParseUSD("")
	assert.Error(t, err)

	_, err = models.ParseUSD("ten dollars")
	assert.Error(t, err)
}

func TestCentsString(t *testing.T) {
	assert.Equal(t, "1.75", models.Cents(175).String())
	assert.Equal(t, "0.05", models.Cents(5).String())
}

func TestUsernameFromEmail(t *testing.T) {
	assert.Equal(t, "alice", models.UsernameFromEmail("alice@example.com"))
	assert.Equal(t, "no-at-sign", models.UsernameFromEmail("no-at-sign"))
}

func TestChargeHistoryLookup(t *testing.T) {
	u := &models.User{Email: "alice@example.com"}

	require.Nil(t, u.FindCharge("CODE1"))

	ok := u.AddCharge(models.Charge{Code: "CODE1", Amount: 1000, Status: models.ChargeStatusPending})
	require.True(t, ok)

	ch := u.FindCharge("CODE1")
	require.NotNil(t, ch)
	assert.Equal(t, models.Cents(1000), ch.Amount)

	// Duplicate codes are refused.
	ok = u.AddCharge(models.Charge{Code: "CODE1", Amount: 2000})
	assert.False(t, ok)
	assert.Len(t, u.ChargeHistory, 1)

	// FindCharge returns a mutable reference into the history.
	ch.Status = models.ChargeStatusCompleted
	assert.Equal(t, models.ChargeStatusCompleted, u.ChargeHistory[0].Status)
}

func TestUserSerializationKeepsPasswordHash(t *testing.T) {
	// The store persists users as JSON blobs; losing the hash on the
	// round trip would lock every account out.
	u := &models.User{
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Credits:      500,
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var got models.User
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", got.PasswordHash)
}

func TestWebhookEnvelopeLatestStatus(t *testing.T) {
	raw := `{"event":{"type":"charge:pending","data":{
		"id":"checkout-1","code":"CODE1",
		"pricing":{"local":{"amount":"10.00","currency":"USD"}},
		"metadata":{"email":"alice@example.com"},
		"timeline":[{"status":"NEW","time":"t0"},{"status":"PENDING","time":"t1"}],
		"created_at":"2023-01-01T00:00:00Z"}}}`

	var env models.WebhookEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	assert.Equal(t, "PENDING", env.LatestStatus())
	assert.Equal(t, "alice@example.com", env.Event.Data.Metadata.Email)
	assert.Equal(t, "10.00", env.Event.Data.Pricing.Local.Amount)

	var empty models.WebhookEnvelope
	assert.Equal(t, "", empty.LatestStatus())
}
