package services

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"cryptocasino-backend/internal/models"
)

// ChargeEvent is one charge-status notification after signature
// verification and envelope parsing.
type ChargeEvent struct {
	CheckoutID string
	Code       string
	Amount     models.Cents
	Status     models.ChargeStatus
	Timestamp  string
}

func ChargeEventFromEnvelope(env *models.WebhookEnvelope) (ChargeEvent, error) {
	data := env.Event.Data
	if data.Code == "" {
		return ChargeEvent{}, fmt.Errorf("missing charge code")
	}

	amount, err := models.ParseUSD(data.Pricing.Local.Amount)
	if err != nil {
		return ChargeEvent{}, fmt.Errorf("bad charge amount: %w", err)
	}

	return ChargeEvent{
		CheckoutID: data.ID,
		Code:       data.Code,
		Amount:     amount,
		Status:     models.ChargeStatus(env.LatestStatus()),
		Timestamp:  data.CreatedAt,
	}, nil
}

// Outcome classifies what a charge event did to the user record.
type Outcome string

const (
	// OutcomeCredited: first PENDING observation, charge appended and
	// balance credited. The only crediting outcome.
	OutcomeCredited Outcome = "credited"
	// OutcomeUpdated: known charge, status/timestamp refreshed, no
	// balance change. Covers idempotent re-delivery and COMPLETED
	// finalization.
	OutcomeUpdated Outcome = "updated"
	// OutcomeRecorded: unrecognized status with no prior record,
	// appended without credit.
	OutcomeRecorded Outcome = "recorded"
	// OutcomeInconsistent: COMPLETED with no prior PENDING record.
	OutcomeInconsistent Outcome = "inconsistent"
)

// Reconciler merges charge-status events into a user's charge history
// and balance. The balance is credited exactly once per charge, at the
// first PENDING observation; every later event for the same code only
// touches status and timestamp.
type Reconciler struct {
	log       *logrus.Logger
	anomalies atomic.Int64
}

func NewReconciler(log *logrus.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Apply mutates u in place. Callers run it inside the store's optimistic
// update loop so the mutation lands on the latest stored version.
func (r *Reconciler) Apply(u *models.User, ev ChargeEvent) Outcome {
	fields := logrus.Fields{
		"email":  u.Email,
		"code":   ev.Code,
		"status": ev.Status,
		"amount": ev.Amount.String(),
	}

	if existing := u.FindCharge(ev.Code); existing != nil {
		existing.Status = ev.Status
		existing.Timestamp = ev.Timestamp
		r.log.WithFields(fields).Info("charge updated")
		return OutcomeUpdated
	}

	switch ev.Status {
	case models.ChargeStatusPending:
		u.AddCharge(models.Charge{
			CheckoutID: ev.CheckoutID,
			Amount:     ev.Amount,
			Code:       ev.Code,
			Status:     ev.Status,
			Timestamp:  ev.Timestamp,
		})
		u.Credits += ev.Amount
		r.log.WithFields(fields).WithField("credits", u.Credits.String()).Info("charge credited")
		return OutcomeCredited

	case models.ChargeStatusCompleted:
		// A terminal event for a charge we never saw as PENDING. The
		// amount is unverifiable against our own history, so record the
		// anomaly instead of crediting blind.
		r.anomalies.Add(1)
		r.log.WithFields(fields).Warn("completed event for unknown charge code")
		return OutcomeInconsistent

	default:
		u.AddCharge(models.Charge{
			CheckoutID: ev.CheckoutID,
			Amount:     ev.Amount,
			Code:       ev.Code,
			Status:     ev.Status,
			Timestamp:  ev.Timestamp,
		})
		r.log.WithFields(fields).Info("charge recorded")
		return OutcomeRecorded
	}
}

// Anomalies reports how many inconsistent-state events were seen.
func (r *Reconciler) Anomalies() int64 {
	return r.anomalies.Load()
}
