package handlers

import (
	"context"

	"cryptocasino-backend/internal/models"
	"cryptocasino-backend/internal/services"
)

// Store is the persistence surface the handlers need. *services.Store
// satisfies it; tests substitute in-memory fakes.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, email string, mutate func(*models.User) error) (*models.User, error)

	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error

	SaveCaptcha(ctx context.Context, id, answer string) error
	CheckCaptcha(ctx context.Context, id, answer string) (bool, error)
}

// Gateway is the outbound payment-processor surface. *services.CoinbaseClient
// satisfies it.
type Gateway interface {
	CreateCharge(ctx context.Context, email, username string, amount models.Cents) (*services.HostedCharge, error)
	USDExchangeRate(ctx context.Context, currency string) (float64, error)
	SendMoney(ctx context.Context, to, cryptoAmount, currency, idem string) error
}
