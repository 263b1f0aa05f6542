package services

import "cryptocasino-backend/internal/models"

// BalanceEvent announces a persisted balance change for one user.
type BalanceEvent struct {
	Email   string       `json:"email"`
	Credits models.Cents `json:"-"`
	Reason  string       `json:"reason"` // deposit, win, settlement, withdrawal
}

type Broadcaster interface {
	BroadcastBalance(ev BalanceEvent)
}

// NoopBroadcaster drops events. Used in tests and when no stream
// consumers exist.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastBalance(BalanceEvent) {}
