package service

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/google/uuid"

    "github.com/iliyamo/uniscape-booking/internal/model"
    "github.com/iliyamo/uniscape-booking/internal/queue"
    "github.com/iliyamo/uniscape-booking/internal/repository"
)

// Top-up methods a student can pick when initiating a deposit. Cash
// is handed over at the office, QR is a bank transfer reference; both
// sit as PENDING credits until an admin confirms the money arrived.
const (
    TopUpCash = "CASH"
    TopUpQR   = "QR"
)

// WalletService covers balance reads, the transaction history and
// the two-phase top-up flow (student initiates, admin confirms or
// denies).
type WalletService struct {
    DB       *sql.DB
    Users    *repository.UserRepo
    Ledger   *repository.LedgerRepo
    Notifier Notifier
}

// Balance returns the user's current wallet balance in cents.
func (s *WalletService) Balance(ctx context.Context, userID uint64) (int64, error) {
    return s.Users.WalletBalance(ctx, userID)
}

// History returns the user's ledger, newest first.
func (s *WalletService) History(ctx context.Context, userID uint64) ([]model.WalletTransaction, error) {
    return s.Ledger.HistoryByUser(ctx, userID)
}

// InitiateTopUp records the student's intent to deposit as a PENDING
// credit. The wallet balance does not move until an admin confirms.
func (s *WalletService) InitiateTopUp(ctx context.Context, userID uint64, amountCents int64, method string) (model.WalletTransaction, error) {
    if amountCents <= 0 {
        return model.WalletTransaction{}, repository.ErrInvalidState
    }
    if method != TopUpCash && method != TopUpQR {
        return model.WalletTransaction{}, repository.ErrInvalidState
    }
    wt := model.WalletTransaction{
        UserID:      userID,
        AmountCents: amountCents,
        Type:        model.TxCredit,
        Status:      model.TxPending,
        Details:     "Top-Up (" + method + ")",
        Reference:   uuid.NewString(),
    }
    id, err := s.Ledger.Append(ctx, wt)
    if err != nil {
        return model.WalletTransaction{}, err
    }
    wt.ID = id
    return wt, nil
}

// ConfirmTopUp marks a pending credit as received and applies it to
// the wallet. The status flip and the balance adjustment share one
// transaction, and the guarded PENDING->COMPLETED update makes a
// second confirm fail with ErrInvalidState instead of paying twice.
func (s *WalletService) ConfirmTopUp(ctx context.Context, txID uint64) (model.WalletTransaction, error) {
    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return model.WalletTransaction{}, fmt.Errorf("begin confirm tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            tx.Rollback()
        }
    }()

    wt, err := s.Ledger.GetForUpdateTx(ctx, tx, txID)
    if err != nil {
        return model.WalletTransaction{}, err
    }
    if wt.Type != model.TxCredit || wt.Status != model.TxPending {
        return model.WalletTransaction{}, repository.ErrInvalidState
    }

    if err := s.Ledger.CompleteTx(ctx, tx, wt.ID); err != nil {
        return model.WalletTransaction{}, err
    }
    if err := s.Users.AdjustWalletTx(ctx, tx, wt.UserID, wt.AmountCents); err != nil {
        return model.WalletTransaction{}, err
    }

    if err := tx.Commit(); err != nil {
        return model.WalletTransaction{}, fmt.Errorf("commit confirm tx: %w", err)
    }
    committed = true

    wt.Status = model.TxCompleted
    s.notifyConfirmed(ctx, wt)
    return wt, nil
}

// TopUpStatus returns a single ledger entry so a student can poll
// whether an admin has confirmed their deposit. Entries belonging to
// other users read as not found.
func (s *WalletService) TopUpStatus(ctx context.Context, userID, txID uint64) (model.WalletTransaction, error) {
    wt, err := s.Ledger.GetByID(ctx, txID)
    if err != nil {
        return model.WalletTransaction{}, err
    }
    if wt.UserID != userID {
        return model.WalletTransaction{}, repository.ErrTxNotFound
    }
    return wt, nil
}

// DenyTopUp discards a pending credit that never materialized. Only
// PENDING rows can be removed; the completed ledger is append-only.
func (s *WalletService) DenyTopUp(ctx context.Context, txID uint64) error {
    return s.Ledger.DeletePending(ctx, txID)
}

// ListPendingTopUps returns the admin confirmation queue, oldest
// first.
func (s *WalletService) ListPendingTopUps(ctx context.Context) ([]model.WalletTransaction, error) {
    return s.Ledger.ListPending(ctx)
}

func (s *WalletService) notifyConfirmed(ctx context.Context, wt model.WalletTransaction) {
    u, err := s.Users.GetByID(ctx, wt.UserID)
    if err != nil {
        return
    }
    notifyAsync(s.Notifier, queue.Notification{
        Kind:           queue.KindTopUpConfirmed,
        UserID:         wt.UserID,
        RecipientName:  u.Name,
        RecipientEmail: u.Email,
        AmountCents:    wt.AmountCents,
    })
}
