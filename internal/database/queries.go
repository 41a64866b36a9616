package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (id, user_id, table_id, type, status, subtotal, discount, tax, total, note)
		VALUES ($1, $2, $3, $4, $5, 0, 0, 0, 0, $6)
		RETURNING created_at, updated_at`

	GetOrderSQL = `
		SELECT id, user_id, table_id, type, status, subtotal, discount, tax, total,
		       applied_user_voucher_id, note, created_at, updated_at
		FROM orders WHERE id = $1`

	GetOrderForUpdateSQL = GetOrderSQL + ` FOR UPDATE`

	GetOpenOrderByTableSQL = `
		SELECT id, user_id, table_id, type, status, subtotal, discount, tax, total,
		       applied_user_voucher_id, note, created_at, updated_at
		FROM orders WHERE table_id = $1 AND status = 'OPEN'
		ORDER BY created_at ASC LIMIT 1`

	GetOpenCartByUserSQL = `
		SELECT id, user_id, table_id, type, status, subtotal, discount, tax, total,
		       applied_user_voucher_id, note, created_at, updated_at
		FROM orders WHERE user_id = $1 AND status = 'OPEN' AND type = 'DELIVERY'
		ORDER BY created_at ASC LIMIT 1`

	ListOrdersByUserSQL = `
		SELECT id, user_id, table_id, type, status, subtotal, discount, tax, total,
		       applied_user_voucher_id, note, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	ListAllOrdersSQL = `
		SELECT id, user_id, table_id, type, status, subtotal, discount, tax, total,
		       applied_user_voucher_id, note, created_at, updated_at
		FROM orders ORDER BY created_at DESC`

	UpdateOrderTotalsSQL = `
		UPDATE orders SET subtotal = $2, discount = $3, tax = $4, total = $5, updated_at = NOW()
		WHERE id = $1`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1`

	UpdateOrderVoucherSQL = `
		UPDATE orders SET applied_user_voucher_id = $2, updated_at = NOW()
		WHERE id = $1`

	DeleteEmptyOrdersSQL = `
		DELETE FROM orders o
		WHERE o.status = 'OPEN' AND o.type = 'DELIVERY'
		  AND NOT EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id)`

	CountOrdersByStatusTodaySQL = `
		SELECT status, COUNT(*) FROM orders
		WHERE created_at >= date_trunc('day', NOW()) AND created_at < date_trunc('day', NOW()) + INTERVAL '1 day'
		GROUP BY status`
)

// Order item queries
const (
	InsertOrderItemSQL = `
		INSERT INTO order_items (id, order_id, item_type, item_id, name, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ListOrderItemsSQL = `
		SELECT id, order_id, item_type, item_id, name, unit_price, quantity, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`

	GetOrderItemSQL = `
		SELECT id, order_id, item_type, item_id, name, unit_price, quantity, line_total
		FROM order_items WHERE id = $1 AND order_id = $2`

	UpdateOrderItemQuantitySQL = `
		UPDATE order_items SET quantity = $3, line_total = $4
		WHERE id = $1 AND order_id = $2`

	UpdateOrderItemSnapshotSQL = `
		UPDATE order_items SET name = $3, unit_price = $4, quantity = $5, line_total = $6
		WHERE id = $1 AND order_id = $2`

	DeleteOrderItemSQL = `
		DELETE FROM order_items WHERE id = $1 AND order_id = $2`
)

// Payment queries
const (
	InsertPaymentSQL = `
		INSERT INTO payments (id, order_id, method, amount, status, transaction_ref, expired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	GetPaymentByTxnRefForUpdateSQL = `
		SELECT id, order_id, method, amount, status, transaction_ref, bank_code, card_type,
		       description, created_at, paid_at, expired_at
		FROM payments WHERE transaction_ref = $1
		FOR UPDATE`

	MarkPaymentSucceededSQL = `
		UPDATE payments SET status = 'SUCCEEDED', paid_at = NOW(), bank_code = $2, card_type = $3, description = $4
		WHERE id = $1`

	MarkPaymentFailedSQL = `
		UPDATE payments SET status = 'FAILED', bank_code = $2, card_type = $3, description = $4
		WHERE id = $1`
)

// Table queries
const (
	GetTableSQL = `
		SELECT id, area_id, code, seats, status FROM tables WHERE id = $1`

	// Serializes concurrent QR scans of the same physical table
	GetTableForUpdateSQL = GetTableSQL + ` FOR UPDATE`

	GetTablesByIDsForUpdateSQL = `
		SELECT id, area_id, code, seats, status FROM tables WHERE id = ANY($1)
		ORDER BY id FOR UPDATE`

	ListAvailableTablesSQL = `
		SELECT t.id, t.area_id, t.code, t.seats, t.status
		FROM tables t
		WHERE t.status = 'AVAILABLE'
		  AND t.id NOT IN (
			SELECT l.table_id FROM reservation_tables l
			JOIN reservations r ON r.id = l.reservation_id
			WHERE r.status IN ('PENDING', 'CONFIRMED')
			  AND r.start_time < $2 AND r.end_time > $1
		  )
		ORDER BY t.code`
)

// Reservation queries
const (
	InsertReservationSQL = `
		INSERT INTO reservations (id, user_id, start_time, end_time, party_size, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	GetReservationSQL = `
		SELECT id, user_id, start_time, end_time, party_size, status, note, cancel_reason, canceled_by, created_at
		FROM reservations WHERE id = $1`

	GetReservationForUpdateSQL = GetReservationSQL + ` FOR UPDATE`

	ListReservationsByUserSQL = `
		SELECT id, user_id, start_time, end_time, party_size, status, note, cancel_reason, canceled_by, created_at
		FROM reservations WHERE user_id = $1 ORDER BY start_time DESC`

	ListAllReservationsSQL = `
		SELECT id, user_id, start_time, end_time, party_size, status, note, cancel_reason, canceled_by, created_at
		FROM reservations ORDER BY start_time DESC`

	// Half-open interval overlap: another PENDING/CONFIRMED reservation on
	// any of the given tables with existing.start < new.end AND new.start < existing.end
	CountReservationOverlapsSQL = `
		SELECT COUNT(DISTINCT r.id)
		FROM reservations r
		JOIN reservation_tables l ON l.reservation_id = r.id
		WHERE l.table_id = ANY($1)
		  AND r.id <> $2
		  AND r.status IN ('PENDING', 'CONFIRMED')
		  AND r.start_time < $4 AND r.end_time > $3`

	DeleteReservationLinksSQL = `
		DELETE FROM reservation_tables WHERE reservation_id = $1`

	InsertReservationLinkSQL = `
		INSERT INTO reservation_tables (reservation_id, table_id) VALUES ($1, $2)`

	UpdateReservationStatusSQL = `
		UPDATE reservations SET status = $2 WHERE id = $1`

	CancelReservationSQL = `
		UPDATE reservations SET status = 'CANCELLED', cancel_reason = $2, canceled_by = $3 WHERE id = $1`

	ListTablesForReservationSQL = `
		SELECT t.id, t.area_id, t.code, t.seats, t.status
		FROM tables t JOIN reservation_tables l ON l.table_id = t.id
		WHERE l.reservation_id = $1 ORDER BY t.code`

	CountReservationsByStatusTodaySQL = `
		SELECT status, COUNT(*) FROM reservations
		WHERE created_at >= date_trunc('day', NOW()) AND created_at < date_trunc('day', NOW()) + INTERVAL '1 day'
		GROUP BY status`
)

// Voucher and loyalty queries
const (
	GetVoucherByCodeSQL = `
		SELECT id, code, name, type, value, min_order, max_discount, point_cost, status, start_at, end_at
		FROM vouchers WHERE LOWER(code) = LOWER($1)`

	GetVoucherByIDSQL = `
		SELECT id, code, name, type, value, min_order, max_discount, point_cost, status, start_at, end_at
		FROM vouchers WHERE id = $1`

	ListRedeemableVouchersSQL = `
		SELECT id, code, name, type, value, min_order, max_discount, point_cost, status, start_at, end_at
		FROM vouchers
		WHERE status = 'ACTIVE' AND point_cost > 0 AND point_cost <= $1
		  AND (start_at IS NULL OR start_at <= NOW())
		  AND (end_at IS NULL OR end_at >= NOW())
		ORDER BY point_cost ASC`

	GetUserVoucherSQL = `
		SELECT uv.id, uv.user_id, uv.voucher_id, uv.redeemed, uv.redeemed_at
		FROM user_vouchers uv WHERE uv.id = $1`

	GetUserVoucherForUpdateSQL = GetUserVoucherSQL + ` FOR UPDATE`

	GetUnredeemedUserVoucherByCodeSQL = `
		SELECT uv.id FROM user_vouchers uv
		JOIN vouchers v ON v.id = uv.voucher_id
		WHERE uv.user_id = $1 AND LOWER(v.code) = LOWER($2) AND uv.redeemed = FALSE
		LIMIT 1`

	ListUnredeemedUserVouchersSQL = `
		SELECT uv.id, uv.user_id, uv.voucher_id, uv.redeemed, uv.redeemed_at,
		       v.id, v.code, v.name, v.type, v.value, v.min_order, v.max_discount, v.point_cost, v.status, v.start_at, v.end_at
		FROM user_vouchers uv JOIN vouchers v ON v.id = uv.voucher_id
		WHERE uv.user_id = $1 AND uv.redeemed = FALSE`

	ExistsUnredeemedUserVoucherSQL = `
		SELECT EXISTS (
			SELECT 1 FROM user_vouchers
			WHERE user_id = $1 AND voucher_id = $2 AND redeemed = FALSE
		)`

	InsertUserVoucherSQL = `
		INSERT INTO user_vouchers (id, user_id, voucher_id, redeemed)
		VALUES ($1, $2, $3, FALSE)`

	// Flips redeemed exactly once; returns no row when already redeemed
	RedeemUserVoucherSQL = `
		UPDATE user_vouchers SET redeemed = TRUE, redeemed_at = NOW()
		WHERE id = $1 AND redeemed = FALSE
		RETURNING id`

	GetLoyaltyPointsSQL = `
		SELECT points FROM loyalty_accounts WHERE user_id = $1`

	GetLoyaltyForUpdateSQL = `
		SELECT points FROM loyalty_accounts WHERE user_id = $1 FOR UPDATE`

	// Atomic accrual; safe against concurrent debits without a prior lock
	UpsertLoyaltyCreditSQL = `
		INSERT INTO loyalty_accounts (user_id, points, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			points = loyalty_accounts.points + EXCLUDED.points,
			updated_at = NOW()`

	DebitLoyaltySQL = `
		UPDATE loyalty_accounts SET points = points - $2, updated_at = NOW()
		WHERE user_id = $1 AND points >= $2
		RETURNING points`

	EnsureLoyaltyAccountSQL = `
		INSERT INTO loyalty_accounts (user_id, points, updated_at)
		VALUES ($1, 0, NOW())
		ON CONFLICT (user_id) DO NOTHING`
)
