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

// RefundService resolves the admin refund queue. Each request is
// resolved at most once: both Approve and Deny lock the PENDING row
// and flip it with a guarded UPDATE, so a double-click or two admins
// racing produce exactly one state change.
type RefundService struct {
    DB        *sql.DB
    Users     *repository.UserRepo
    Trips     *repository.TripRepo
    Transport *repository.TransportRepo
    Bookings  *repository.BookingRepo
    Ledger    *repository.LedgerRepo
    Refunds   *repository.RefundRepo
    Notifier  Notifier
}

// ListPending returns the open refund queue, oldest first.
func (s *RefundService) ListPending(ctx context.Context) ([]model.RefundRequest, error) {
    return s.Refunds.ListPending(ctx)
}

// Approve credits the requested amount back to the student's wallet
// and records a REFUND ledger entry, all in one transaction with the
// status flip.
func (s *RefundService) Approve(ctx context.Context, refundID uint64) (model.RefundRequest, error) {
    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return model.RefundRequest{}, fmt.Errorf("begin approve tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            tx.Rollback()
        }
    }()

    req, err := s.Refunds.GetForUpdateTx(ctx, tx, refundID)
    if err != nil {
        return model.RefundRequest{}, err
    }
    if req.Status != model.RefundPending {
        return model.RefundRequest{}, repository.ErrInvalidState
    }

    if err := s.Refunds.ResolveTx(ctx, tx, req.ID, model.RefundApproved); err != nil {
        return model.RefundRequest{}, err
    }
    if err := s.Users.AdjustWalletTx(ctx, tx, req.UserID, req.AmountCents); err != nil {
        return model.RefundRequest{}, err
    }
    _, err = s.Ledger.AppendTx(ctx, tx, model.WalletTransaction{
        UserID:      req.UserID,
        AmountCents: req.AmountCents,
        Type:        model.TxRefund,
        Status:      model.TxCompleted,
        Details:     "Refund Approved: " + req.Label,
        Reference:   uuid.NewString(),
    })
    if err != nil {
        return model.RefundRequest{}, err
    }

    if err := tx.Commit(); err != nil {
        return model.RefundRequest{}, fmt.Errorf("commit approve tx: %w", err)
    }
    committed = true

    req.Status = model.RefundApproved
    s.notifyResolved(ctx, req, "approved")
    return req, nil
}

// Deny rejects the request, reviving the cancelled booking: no money
// moves, the booking goes back to ACTIVE at its original amount and
// the item's occupancy is re-incremented. The counter bump is
// unconditional, so a route that filled up in the meantime can briefly
// sit above capacity; the student keeps the seat they paid for.
func (s *RefundService) Deny(ctx context.Context, refundID uint64) (model.RefundRequest, error) {
    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return model.RefundRequest{}, fmt.Errorf("begin deny tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            tx.Rollback()
        }
    }()

    req, err := s.Refunds.GetForUpdateTx(ctx, tx, refundID)
    if err != nil {
        return model.RefundRequest{}, err
    }
    if req.Status != model.RefundPending {
        return model.RefundRequest{}, repository.ErrInvalidState
    }

    booking, err := s.Bookings.GetForUpdateTx(ctx, tx, req.BookingID)
    if err != nil {
        return model.RefundRequest{}, err
    }

    if err := s.Refunds.ResolveTx(ctx, tx, req.ID, model.RefundDenied); err != nil {
        return model.RefundRequest{}, err
    }
    if err := s.Bookings.ReactivateKeepAmountTx(ctx, tx, booking.ID); err != nil {
        return model.RefundRequest{}, err
    }
    switch booking.ItemType {
    case model.ItemTrip:
        err = s.Trips.IncrementBookingsTx(ctx, tx, booking.ItemID)
    case model.ItemShuttle:
        err = s.Transport.IncrementBookingsTx(ctx, tx, booking.ItemID)
    }
    if err != nil {
        return model.RefundRequest{}, err
    }

    if err := tx.Commit(); err != nil {
        return model.RefundRequest{}, fmt.Errorf("commit deny tx: %w", err)
    }
    committed = true

    req.Status = model.RefundDenied
    s.notifyResolved(ctx, req, "denied")
    return req, nil
}

func (s *RefundService) notifyResolved(ctx context.Context, req model.RefundRequest, outcome string) {
    u, err := s.Users.GetByID(ctx, req.UserID)
    if err != nil {
        return
    }
    notifyAsync(s.Notifier, queue.Notification{
        Kind:           queue.KindRefundResolved,
        UserID:         req.UserID,
        RecipientName:  u.Name,
        RecipientEmail: u.Email,
        ItemLabel:      req.Label,
        AmountCents:    req.AmountCents,
        BookingID:      req.BookingID,
        RefundID:       req.ID,
        Outcome:        outcome,
    })
}
