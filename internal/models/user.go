package models

import "strings"

type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "PENDING"
	ChargeStatusCompleted ChargeStatus = "COMPLETED"
)

// Charge is one payment-processor charge tracked in a user's history.
// Code is the business key: at most one charge per (user, code).
type Charge struct {
	CheckoutID string       `json:"checkout_id" redis:"checkout_id"`
	Amount     Cents        `json:"amount" redis:"amount"`
	Code       string       `json:"code" redis:"code"`
	Status     ChargeStatus `json:"status" redis:"status"`
	// Timestamp is the event time as reported by the gateway, not
	// receipt time.
	Timestamp string `json:"timestamp" redis:"timestamp"`
}

type User struct {
	Email        string `json:"email" redis:"email"`
	Username     string `json:"username" redis:"username"`
	// PasswordHash must survive the store's JSON round trip; API
	// responses are built field by field and never marshal User.
	PasswordHash string `json:"password_hash" redis:"password_hash"`

	Credits       Cents    `json:"credits" redis:"credits"`
	ChargeHistory []Charge `json:"charge_history" redis:"charge_history"`

	// Version guards optimistic read-modify-write cycles on the stored
	// record. Bumped on every persisted update.
	Version   int64 `json:"version" redis:"version"`
	CreatedAt int64 `json:"created_at" redis:"created_at"`
}

// UsernameFromEmail derives the display name as the local part of the
// email address.
func UsernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// FindCharge returns the charge with the given code, or nil. The history
// is indexed by code on each call; duplicate codes cannot be inserted
// through AddCharge so the first hit is the only hit.
func (u *User) FindCharge(code string) *Charge {
	idx := u.chargeIndex()
	if i, ok := idx[code]; ok {
		return &u.ChargeHistory[i]
	}
	return nil
}

// AddCharge appends a charge, refusing a duplicate code.
func (u *User) AddCharge(ch Charge) bool {
	if _, ok := u.chargeIndex()[ch.Code]; ok {
		return false
	}
	u.ChargeHistory = append(u.ChargeHistory, ch)
	return true
}

func (u *User) chargeIndex() map[string]int {
	idx := make(map[string]int, len(u.ChargeHistory))
	for i, ch := range u.ChargeHistory {
		if _, ok := idx[ch.Code]; !ok {
			idx[ch.Code] = i
		}
	}
	return idx
}
