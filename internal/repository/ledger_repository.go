package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/uniscape-booking/internal/model"
)

// LedgerRepo persists wallet_transactions, the append-only record of
// every wallet-affecting event.
//
// Invariants:
//   - Append-only: completed rows are never updated or deleted.
//   - The sole permitted transitions are completing a PENDING credit
//     (top-up confirmation) and deleting a still-PENDING credit
//     (top-up denial).
//   - An idempotency key, when present, is unique across all rows.
//
// Corrections happen through new entries, never edits, so the wallet
// balance can always be explained from history.
type LedgerRepo struct{ DB *sql.DB }

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{DB: db} }

const ledgerColumns = "id, user_id, amount_cents, type, status, details, reference, COALESCE(idempotency_key,''), created_at"

func scanLedger(row interface{ Scan(...interface{}) error }) (model.WalletTransaction, error) {
	var wt model.WalletTransaction
	err := row.Scan(&wt.ID, &wt.UserID, &wt.AmountCents, &wt.Type, &wt.Status,
		&wt.Details, &wt.Reference, &wt.IdempotencyKey, &wt.CreatedAt)
	return wt, err
}

// AppendTx inserts a ledger entry inside the caller's transaction and
// returns its ID. An empty idempotency key is stored as NULL so the
// unique index only bites when a key is actually supplied.
func (r *LedgerRepo) AppendTx(ctx context.Context, tx *sql.Tx, wt model.WalletTransaction) (uint64, error) {
	var key interface{}
	if wt.IdempotencyKey != "" {
		key = wt.IdempotencyKey
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO wallet_transactions (user_id, amount_cents, type, status, details, reference, idempotency_key) VALUES (?,?,?,?,?,?,?)",
		wt.UserID, wt.AmountCents, wt.Type, wt.Status, wt.Details, wt.Reference, key)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Append inserts a ledger entry outside any transaction (top-up
// initiation, referral bonus at registration).
func (r *LedgerRepo) Append(ctx context.Context, wt model.WalletTransaction) (uint64, error) {
	var key interface{}
	if wt.IdempotencyKey != "" {
		key = wt.IdempotencyKey
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO wallet_transactions (user_id, amount_cents, type, status, details, reference, idempotency_key) VALUES (?,?,?,?,?,?,?)",
		wt.UserID, wt.AmountCents, wt.Type, wt.Status, wt.Details, wt.Reference, key)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// KeyExistsTx reports whether an idempotency key was already
// committed. Checked under the booking transaction before any
// mutation so a replayed request is rejected without side effects.
func (r *LedgerRepo) KeyExistsTx(ctx context.Context, tx *sql.Tx, key string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM wallet_transactions WHERE idempotency_key=? LIMIT 1", key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetForUpdateTx loads a ledger entry under a row lock.
func (r *LedgerRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.WalletTransaction, error) {
	wt, err := scanLedger(tx.QueryRowContext(ctx,
		"SELECT "+ledgerColumns+" FROM wallet_transactions WHERE id=? FOR UPDATE", id))
	if err == sql.ErrNoRows {
		return model.WalletTransaction{}, ErrTxNotFound
	}
	return wt, err
}

// GetByID loads a ledger entry outside any transaction.
func (r *LedgerRepo) GetByID(ctx context.Context, id uint64) (model.WalletTransaction, error) {
	wt, err := scanLedger(r.DB.QueryRowContext(ctx,
		"SELECT "+ledgerColumns+" FROM wallet_transactions WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.WalletTransaction{}, ErrTxNotFound
	}
	return wt, err
}

// CompleteTx marks a PENDING entry COMPLETED inside the caller's
// transaction. The status guard keeps a concurrent confirmation from
// completing (and crediting) the same entry twice.
func (r *LedgerRepo) CompleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE wallet_transactions SET status=? WHERE id=? AND status=?",
		model.TxCompleted, id, model.TxPending)
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

// DeletePending removes a still-pending credit entry (top-up denial).
// Completed entries never match the guard and so can never be deleted.
func (r *LedgerRepo) DeletePending(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM wallet_transactions WHERE id=? AND status=?", id, model.TxPending)
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

// HistoryByUser returns a user's full ledger, newest first.
func (r *LedgerRepo) HistoryByUser(ctx context.Context, userID uint64) ([]model.WalletTransaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ledgerColumns+" FROM wallet_transactions WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLedger(rows)
}

// ListPending returns all PENDING credit entries for the admin queue,
// oldest first so the queue is worked in arrival order.
func (r *LedgerRepo) ListPending(ctx context.Context) ([]model.WalletTransaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ledgerColumns+" FROM wallet_transactions WHERE status=? ORDER BY created_at ASC, id ASC", model.TxPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLedger(rows)
}

func collectLedger(rows *sql.Rows) ([]model.WalletTransaction, error) {
	entries := make([]model.WalletTransaction, 0)
	for rows.Next() {
		wt, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, wt)
	}
	return entries, rows.Err()
}
