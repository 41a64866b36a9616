package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType represents the type of an order
type OrderType string

const (
	DineIn   OrderType = "DINE_IN"
	Delivery OrderType = "DELIVERY"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderUnpaid    OrderStatus = "UNPAID"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// ItemKind distinguishes catalog entries referenced by order items
type ItemKind string

const (
	KindDish  ItemKind = "DISH"
	KindCombo ItemKind = "COMBO"
)

// PaymentMethod represents how an order is paid
type PaymentMethod string

const (
	MethodCash  PaymentMethod = "CASH"
	MethodCOD   PaymentMethod = "COD"
	MethodVNPay PaymentMethod = "VNPAY"
)

// PaymentStatus represents the status of a payment attempt
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// TableStatus represents the availability of a physical table
type TableStatus string

const (
	TableAvailable   TableStatus = "AVAILABLE"
	TableUnavailable TableStatus = "UNAVAILABLE"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

// VoucherType represents how a voucher discount is computed
type VoucherType string

const (
	VoucherFixed   VoucherType = "FIXED"
	VoucherPercent VoucherType = "PERCENT"
)

// VoucherStatus represents whether a voucher can currently be used
type VoucherStatus string

const (
	VoucherActive   VoucherStatus = "ACTIVE"
	VoucherInactive VoucherStatus = "INACTIVE"
)

// Actor is the caller's authorization level, resolved once at the entry
// point and passed into every state-machine operation.
type Actor string

const (
	ActorAnonymous Actor = "ANONYMOUS"
	ActorCustomer  Actor = "CUSTOMER"
	ActorStaff     Actor = "STAFF"
	ActorAdmin     Actor = "ADMIN"
)

// Elevated reports whether the actor may perform staff-only transitions
func (a Actor) Elevated() bool {
	return a == ActorStaff || a == ActorAdmin
}

// Order is the mutable shopping/ordering session
type Order struct {
	ID                   uuid.UUID       `json:"id"`
	UserID               *uuid.UUID      `json:"user_id,omitempty"`
	TableID              *uuid.UUID      `json:"table_id,omitempty"`
	Type                 OrderType       `json:"order_type"`
	Status               OrderStatus     `json:"status"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	Discount             decimal.Decimal `json:"discount"`
	Tax                  decimal.Decimal `json:"tax"`
	Total                decimal.Decimal `json:"total"`
	AppliedUserVoucherID *uuid.UUID      `json:"applied_user_voucher_id,omitempty"`
	Note                 string          `json:"note,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Items                []OrderItem     `json:"items"`
}

// OrderItem is a priced line within an order; name and unit price are
// snapshotted from the catalog at add time.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Kind      ItemKind        `json:"item_type"`
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Payment records one payment attempt against an order
type Payment struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"order_id"`
	Method         PaymentMethod   `json:"method"`
	Amount         decimal.Decimal `json:"amount"`
	Status         PaymentStatus   `json:"status"`
	TransactionRef *string         `json:"transaction_ref,omitempty"`
	BankCode       *string         `json:"bank_code,omitempty"`
	CardType       *string         `json:"card_type,omitempty"`
	Description    *string         `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	ExpiredAt      *time.Time      `json:"expired_at,omitempty"`
}

// Table is a physical table within an area
type Table struct {
	ID     uuid.UUID   `json:"id"`
	AreaID uuid.UUID   `json:"area_id"`
	Code   string      `json:"code"`
	Seats  int         `json:"seats"`
	Status TableStatus `json:"status"`
}

// Reservation books one or more tables for a half-open time window
type Reservation struct {
	ID           uuid.UUID         `json:"id"`
	UserID       uuid.UUID         `json:"user_id"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	PartySize    int               `json:"party_size"`
	Status       ReservationStatus `json:"status"`
	Note         string            `json:"note,omitempty"`
	CancelReason *string           `json:"cancel_reason,omitempty"`
	CanceledBy   *string           `json:"canceled_by,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Tables       []Table           `json:"tables,omitempty"`
}

// Voucher is a discount definition
type Voucher struct {
	ID          uuid.UUID        `json:"id"`
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Type        VoucherType      `json:"type"`
	Value       decimal.Decimal  `json:"value"`
	MinOrder    decimal.Decimal  `json:"min_order"`
	MaxDiscount *decimal.Decimal `json:"max_discount,omitempty"`
	PointCost   int64            `json:"point_cost"`
	Status      VoucherStatus    `json:"status"`
	StartAt     *time.Time       `json:"start_at,omitempty"`
	EndAt       *time.Time       `json:"end_at,omitempty"`
}

// UserVoucher is a voucher held in a user's wallet; Redeemed flips true
// exactly once, at order settlement.
type UserVoucher struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	VoucherID  uuid.UUID  `json:"voucher_id"`
	Redeemed   bool       `json:"redeemed"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	Voucher    *Voucher   `json:"voucher,omitempty"`
}

// LoyaltyAccount is a user's point balance
type LoyaltyAccount struct {
	UserID    uuid.UUID `json:"user_id"`
	Points    int64     `json:"points"`
	UpdatedAt time.Time `json:"updated_at"`
}
