package order

import (
	"testing"

	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/models"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name      string
		orderType models.OrderType
		current   models.OrderStatus
		target    models.OrderStatus
		actor     models.Actor
		isOwner   bool
		wantCode  errs.Code
	}{
		{
			name:      "paid orders are terminal",
			orderType: models.Delivery,
			current:   models.OrderPaid,
			target:    models.OrderOpen,
			actor:     models.ActorAdmin,
			wantCode:  errs.CodeOrderAlreadySettled,
		},
		{
			name:      "paid dine-in orders are terminal too",
			orderType: models.DineIn,
			current:   models.OrderPaid,
			target:    models.OrderCancelled,
			actor:     models.ActorStaff,
			wantCode:  errs.CodeOrderAlreadySettled,
		},
		{
			name:      "customer cannot touch dine-in orders",
			orderType: models.DineIn,
			current:   models.OrderOpen,
			target:    models.OrderCancelled,
			actor:     models.ActorCustomer,
			isOwner:   true,
			wantCode:  errs.CodeForbidden,
		},
		{
			name:      "staff cancels open dine-in order",
			orderType: models.DineIn,
			current:   models.OrderOpen,
			target:    models.OrderCancelled,
			actor:     models.ActorStaff,
		},
		{
			name:      "staff reopens cancelled dine-in order",
			orderType: models.DineIn,
			current:   models.OrderCancelled,
			target:    models.OrderOpen,
			actor:     models.ActorStaff,
		},
		{
			name:      "dine-in cannot be reopened from anything but cancelled",
			orderType: models.DineIn,
			current:   models.OrderOpen,
			target:    models.OrderOpen,
			actor:     models.ActorAdmin,
			wantCode:  errs.CodeInvalidTransition,
		},
		{
			name:      "dine-in never goes paid via status update",
			orderType: models.DineIn,
			current:   models.OrderOpen,
			target:    models.OrderPaid,
			actor:     models.ActorAdmin,
			wantCode:  errs.CodeInvalidTransition,
		},
		{
			name:      "dine-in rejects unpaid",
			orderType: models.DineIn,
			current:   models.OrderOpen,
			target:    models.OrderUnpaid,
			actor:     models.ActorStaff,
			wantCode:  errs.CodeInvalidTransition,
		},
		{
			name:      "owner checks out their cart",
			orderType: models.Delivery,
			current:   models.OrderOpen,
			target:    models.OrderUnpaid,
			actor:     models.ActorCustomer,
			isOwner:   true,
		},
		{
			name:      "non-owner cannot check out someone else's cart",
			orderType: models.Delivery,
			current:   models.OrderOpen,
			target:    models.OrderUnpaid,
			actor:     models.ActorCustomer,
			isOwner:   false,
			wantCode:  errs.CodeOwnershipViolation,
		},
		{
			name:      "owner cannot cancel their own unpaid order",
			orderType: models.Delivery,
			current:   models.OrderUnpaid,
			target:    models.OrderCancelled,
			actor:     models.ActorCustomer,
			isOwner:   true,
			wantCode:  errs.CodeForbidden,
		},
		{
			name:      "staff cancels unpaid delivery order",
			orderType: models.Delivery,
			current:   models.OrderUnpaid,
			target:    models.OrderCancelled,
			actor:     models.ActorStaff,
		},
		{
			name:      "staff cancels open delivery order",
			orderType: models.Delivery,
			current:   models.OrderOpen,
			target:    models.OrderCancelled,
			actor:     models.ActorAdmin,
		},
		{
			name:      "staff reopens unpaid delivery order",
			orderType: models.Delivery,
			current:   models.OrderUnpaid,
			target:    models.OrderOpen,
			actor:     models.ActorStaff,
		},
		{
			name:      "staff confirms unpaid COD order as paid",
			orderType: models.Delivery,
			current:   models.OrderUnpaid,
			target:    models.OrderPaid,
			actor:     models.ActorStaff,
		},
		{
			name:      "open delivery order cannot jump straight to paid",
			orderType: models.Delivery,
			current:   models.OrderOpen,
			target:    models.OrderPaid,
			actor:     models.ActorStaff,
			wantCode:  errs.CodeInvalidTransition,
		},
		{
			name:      "cancelled delivery order cannot be cancelled again",
			orderType: models.Delivery,
			current:   models.OrderCancelled,
			target:    models.OrderCancelled,
			actor:     models.ActorStaff,
			wantCode:  errs.CodeInvalidTransition,
		},
		{
			name:      "staff reopens cancelled delivery order",
			orderType: models.Delivery,
			current:   models.OrderCancelled,
			target:    models.OrderOpen,
			actor:     models.ActorStaff,
		},
		{
			name:      "anonymous actor is rejected on delivery orders",
			orderType: models.Delivery,
			current:   models.OrderOpen,
			target:    models.OrderUnpaid,
			actor:     models.ActorAnonymous,
			isOwner:   false,
			wantCode:  errs.CodeOwnershipViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transition(tt.orderType, tt.current, tt.target, tt.actor, tt.isOwner)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Transition() error = %v, want nil", err)
				}
				return
			}
			if !errs.IsCode(err, tt.wantCode) {
				t.Fatalf("Transition() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

// Only the CANCELLED transition releases an applied voucher; moving
// between the live states keeps it attached.
func TestDetachesVoucher(t *testing.T) {
	tests := []struct {
		target models.OrderStatus
		want   bool
	}{
		{models.OrderCancelled, true},
		{models.OrderOpen, false},
		{models.OrderUnpaid, false},
		{models.OrderPaid, false},
	}
	for _, tt := range tests {
		if got := detachesVoucher(tt.target); got != tt.want {
			t.Errorf("detachesVoucher(%s) = %v, want %v", tt.target, got, tt.want)
		}
	}
}
