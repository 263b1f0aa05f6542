package services

import (
	"fmt"
	"math"

	"cryptocasino-backend/internal/models"
)

const (
	// Permitted stake denominations: $0.05 through $0.50 in five-cent
	// increments. Anything else from the client is treated as tampering.
	minWagerCents  = models.Cents(5)
	maxWagerCents  = models.Cents(50)
	wagerStepCents = models.Cents(5)

	// maxLineMultiplier caps a single payline at the top of the
	// server-held paytable. Client-reported multipliers above it are
	// clamped rather than trusted.
	maxLineMultiplier = 500.0
)

func ValidWager(wager models.Cents) bool {
	return wager >= minWagerCents && wager <= maxWagerCents && wager%wagerStepCents == 0
}

// ComputeWin sums the line payouts for one settlement request:
// win = Σ(line multiplier × wager), each line rounded to whole cents.
func ComputeWin(wager models.Cents, lines []models.SlotLine) (models.Cents, error) {
	var win models.Cents
	for i, line := range lines {
		if line.Pay < 0 {
			return 0, fmt.Errorf("line %d: %w", i, ErrInvalidLine)
		}
		pay := math.Min(line.Pay, maxLineMultiplier)
		win += models.Cents(math.Round(pay * float64(wager)))
	}
	return win, nil
}

// Debit removes amount from the user's balance, refusing to overdraw.
func Debit(u *models.User, amount models.Cents) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive")
	}
	if u.Credits < amount {
		return ErrInsufficientBalance
	}
	u.Credits -= amount
	return nil
}

// Credit adds amount to the user's balance. Zero is allowed: a losing
// settlement still flows through the same path.
func Credit(u *models.User, amount models.Cents) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must not be negative")
	}
	u.Credits += amount
	return nil
}
