package payment

import (
	"testing"

	"hoaban-restaurant/internal/models"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		current models.PaymentStatus
		success bool
		want    outcome
	}{
		{
			name:    "pending payment succeeds",
			current: models.PaymentPending,
			success: true,
			want:    outcomeConfirm,
		},
		{
			name:    "success replay is a no-op",
			current: models.PaymentSucceeded,
			success: true,
			want:    outcomeDuplicate,
		},
		{
			name:    "pending payment fails",
			current: models.PaymentPending,
			success: false,
			want:    outcomeFail,
		},
		{
			name:    "failure after success never downgrades",
			current: models.PaymentSucceeded,
			success: false,
			want:    outcomeIgnore,
		},
		{
			name:    "retried success after recorded failure settles",
			current: models.PaymentFailed,
			success: true,
			want:    outcomeConfirm,
		},
		{
			name:    "failure replay stays failed",
			current: models.PaymentFailed,
			success: false,
			want:    outcomeFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decide(tt.current, tt.success); got != tt.want {
				t.Errorf("decide(%s, %v) = %d, want %d", tt.current, tt.success, got, tt.want)
			}
		})
	}
}
