package payment

import "hoaban-restaurant/internal/models"

// outcome is the reconciliation action for one gateway callback
type outcome int

const (
	// outcomeConfirm marks the payment succeeded and settles the order
	outcomeConfirm outcome = iota
	// outcomeDuplicate is a success replay; everything already happened
	outcomeDuplicate
	// outcomeFail marks the payment failed
	outcomeFail
	// outcomeIgnore is a failure report that must not downgrade a
	// recorded success
	outcomeIgnore
)

// decide picks the reconciliation action from the payment's recorded
// status and the gateway's verdict. It is deliberately total: every
// (status, verdict) pair maps to exactly one action.
func decide(current models.PaymentStatus, success bool) outcome {
	if success {
		if current == models.PaymentSucceeded {
			return outcomeDuplicate
		}
		return outcomeConfirm
	}
	if current == models.PaymentSucceeded {
		return outcomeIgnore
	}
	return outcomeFail
}
