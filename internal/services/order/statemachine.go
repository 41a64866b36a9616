package order

import (
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/models"
)

// Transition validates a status change request against the order's type,
// its current status, and the caller's authorization. It is the single
// source of truth for the order state machine; callers re-read the
// current status under a row lock before consulting it.
//
// PAID is terminal. DINE_IN transitions always require an elevated
// caller; a cancelled DINE_IN order may be reopened by staff. DELIVERY
// owners may move their own order OPEN -> UNPAID (checkout); everything
// else on DELIVERY requires an elevated caller.
func Transition(orderType models.OrderType, current, target models.OrderStatus, actor models.Actor, isOwner bool) error {
	if current == models.OrderPaid {
		return errs.New(errs.CodeOrderAlreadySettled, "a paid order cannot change status")
	}

	if orderType == models.DineIn {
		return dineInTransition(current, target, actor)
	}
	return deliveryTransition(current, target, actor, isOwner)
}

// detachesVoucher reports whether the transition releases the order's
// applied voucher back to the customer's wallet. A cancelled order must
// not hold a wallet entry hostage; reopening starts at full price.
func detachesVoucher(target models.OrderStatus) bool {
	return target == models.OrderCancelled
}

func dineInTransition(current, target models.OrderStatus, actor models.Actor) error {
	if !actor.Elevated() {
		return errs.New(errs.CodeForbidden, "dine-in orders can only be updated by staff")
	}

	switch target {
	case models.OrderCancelled:
		if current != models.OrderOpen {
			return errs.New(errs.CodeInvalidTransition, "only an open dine-in order can be cancelled")
		}
	case models.OrderOpen:
		if current != models.OrderCancelled {
			return errs.New(errs.CodeInvalidTransition, "only a cancelled dine-in order can be reopened")
		}
	case models.OrderPaid:
		// settlement goes through ConfirmPaid, never a raw status update
		return errs.New(errs.CodeInvalidTransition, "dine-in orders are settled through payment, not a status update")
	default:
		return errs.Newf(errs.CodeInvalidTransition, "status %s is not valid for dine-in orders", target)
	}
	return nil
}

func deliveryTransition(current, target models.OrderStatus, actor models.Actor, isOwner bool) error {
	if !actor.Elevated() {
		if !isOwner {
			return errs.New(errs.CodeOwnershipViolation, "you cannot update an order that is not yours")
		}
		// customers may only check out their own cart
		if current == models.OrderOpen && target == models.OrderUnpaid {
			return nil
		}
		return errs.New(errs.CodeForbidden, "customers may only move a delivery order from OPEN to UNPAID")
	}

	switch target {
	case models.OrderCancelled:
		if current != models.OrderOpen && current != models.OrderUnpaid {
			return errs.New(errs.CodeInvalidTransition, "only OPEN or UNPAID delivery orders can be cancelled")
		}
	case models.OrderOpen:
		if current != models.OrderCancelled && current != models.OrderUnpaid {
			return errs.New(errs.CodeInvalidTransition, "only CANCELLED or UNPAID delivery orders can be reopened")
		}
	case models.OrderUnpaid:
		// staff may force checkout from any live state
	case models.OrderPaid:
		if current != models.OrderUnpaid {
			return errs.New(errs.CodeInvalidTransition, "only an UNPAID COD order can be confirmed paid")
		}
	default:
		return errs.Newf(errs.CodeInvalidTransition, "status %s is not valid for delivery orders", target)
	}
	return nil
}
