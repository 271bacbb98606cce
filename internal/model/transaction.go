package model

import "time"

// Wallet transaction types.  A CREDIT adds money to the wallet, a
// DEBIT removes it, and a REFUND returns money from an approved refund
// request.
const (
    TxCredit = "CREDIT"
    TxDebit  = "DEBIT"
    TxRefund = "REFUND"
)

// Wallet transaction statuses.  PENDING marks an out-of-band payment
// (cash handoff, QR scan) awaiting admin confirmation; COMPLETED rows
// are immutable.
const (
    TxPending   = "PENDING"
    TxCompleted = "COMPLETED"
)

// WalletTransaction is a ledger entry in the append-only
// `wallet_transactions` table.  Completed entries are never updated or
// deleted; corrections happen through new entries.  The only permitted
// mutations are completing a pending credit (top-up confirmation) and
// deleting a still-pending credit (top-up denial).
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – wallet owner.
//  AmountCents    – always positive; Type carries the direction.
//  Type           – CREDIT, DEBIT or REFUND.
//  Status         – PENDING or COMPLETED.
//  Details        – free-text reason, e.g. "Booked Trip: Rishikesh".
//  Reference      – opaque receipt id handed back to clients.
//  IdempotencyKey – optional caller-supplied key; unique when present.
//  CreatedAt      – creation timestamp.
type WalletTransaction struct {
    ID             uint64    // wallet_transactions.id
    UserID         uint64    // wallet_transactions.user_id
    AmountCents    int64     // wallet_transactions.amount_cents
    Type           string    // wallet_transactions.type
    Status         string    // wallet_transactions.status
    Details        string    // wallet_transactions.details
    Reference      string    // wallet_transactions.reference
    IdempotencyKey string    // wallet_transactions.idempotency_key (empty when absent)
    CreatedAt      time.Time // wallet_transactions.created_at
}
