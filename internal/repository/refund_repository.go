package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/uniscape-booking/internal/model"
)

// RefundRepo persists refund_requests, the queue of manually-resolved
// claims created by qualifying cancellations.
type RefundRepo struct{ DB *sql.DB }

func NewRefundRepo(db *sql.DB) *RefundRepo { return &RefundRepo{DB: db} }

const refundColumns = "id, user_id, booking_id, label, amount_cents, status, requested_at, resolved_at"

func scanRefund(row interface{ Scan(...interface{}) error }) (model.RefundRequest, error) {
	var rr model.RefundRequest
	var resolved sql.NullTime
	err := row.Scan(&rr.ID, &rr.UserID, &rr.BookingID, &rr.Label,
		&rr.AmountCents, &rr.Status, &rr.RequestedAt, &resolved)
	if resolved.Valid {
		t := resolved.Time
		rr.ResolvedAt = &t
	}
	return rr, err
}

// CreateTx inserts a PENDING refund request inside the cancellation
// transaction and returns its ID.
func (r *RefundRepo) CreateTx(ctx context.Context, tx *sql.Tx, rr model.RefundRequest) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO refund_requests (user_id, booking_id, label, amount_cents, status) VALUES (?,?,?,?,?)",
		rr.UserID, rr.BookingID, rr.Label, rr.AmountCents, model.RefundPending)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetForUpdateTx loads a refund request under a row lock so that two
// admins resolving the same request serialize; the loser sees the
// already-terminal status and gets ErrInvalidState from the service.
func (r *RefundRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.RefundRequest, error) {
	rr, err := scanRefund(tx.QueryRowContext(ctx,
		"SELECT "+refundColumns+" FROM refund_requests WHERE id=? FOR UPDATE", id))
	if err == sql.ErrNoRows {
		return model.RefundRequest{}, ErrRefundNotFound
	}
	return rr, err
}

// ResolveTx moves a PENDING request to a terminal status.
func (r *RefundRepo) ResolveTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE refund_requests SET status=?, resolved_at=NOW() WHERE id=? AND status=?",
		status, id, model.RefundPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidState
	}
	return nil
}

// ListPending returns the admin queue of unresolved requests, oldest
// first.
func (r *RefundRepo) ListPending(ctx context.Context) ([]model.RefundRequest, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+refundColumns+" FROM refund_requests WHERE status=? ORDER BY requested_at ASC, id ASC", model.RefundPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	requests := make([]model.RefundRequest, 0)
	for rows.Next() {
		rr, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, rr)
	}
	return requests, rows.Err()
}
