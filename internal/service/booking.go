package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/uniscape-booking/internal/model"
    "github.com/iliyamo/uniscape-booking/internal/queue"
    "github.com/iliyamo/uniscape-booking/internal/repository"
)

// BookingService runs the purchase and cancellation flows. Every
// operation is a single transaction: the wallet debit, the occupancy
// bump and the booking row either all land or none do. Row locks
// (SELECT ... FOR UPDATE) on the item, the wallet and the existing
// booking make concurrent attempts serialize, so at most one of two
// racing requests for the last slot or the last cent wins.
type BookingService struct {
    DB        *sql.DB
    Users     *repository.UserRepo
    Trips     *repository.TripRepo
    Transport *repository.TransportRepo
    Bookings  *repository.BookingRepo
    Ledger    *repository.LedgerRepo
    Refunds   *repository.RefundRepo
    Notifier  Notifier

    // Now is the clock used for refund-tier decisions. Nil means
    // time.Now; tests pin it.
    Now func() time.Time
}

func (s *BookingService) clock() time.Time {
    if s.Now != nil {
        return s.Now()
    }
    return time.Now()
}

// BookTrip books one spot on a trip for the user, debiting the sale
// price from their wallet, and returns the booking together with the
// post-debit wallet balance. idemKey is the client's optional
// Idempotency-Key header; a repeated key is rejected before any state
// changes. Preconditions are checked in a fixed order against locked
// rows: item exists and is open, no active duplicate booking, enough
// funds, free capacity.
func (s *BookingService) BookTrip(ctx context.Context, userID, tripID uint64, idemKey string) (model.Booking, int64, error) {
    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return model.Booking{}, 0, fmt.Errorf("begin booking tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            tx.Rollback()
        }
    }()

    if idemKey != "" {
        seen, err := s.Ledger.KeyExistsTx(ctx, tx, idemKey)
        if err != nil {
            return model.Booking{}, 0, err
        }
        if seen {
            return model.Booking{}, 0, repository.ErrDuplicateRequest
        }
    }

    trip, err := s.Trips.GetForUpdateTx(ctx, tx, tripID)
    if err != nil {
        return model.Booking{}, 0, err
    }
    if trip.Status != model.ItemStatusActive {
        return model.Booking{}, 0, repository.ErrNotOpen
    }

    booking, newBalance, err := s.settleBooking(ctx, tx, settleParams{
        userID:      userID,
        itemType:    model.ItemTrip,
        itemID:      trip.ID,
        label:       trip.Destination,
        priceCents:  trip.SalePriceCents,
        slotsLeft:   trip.MaxParticipants > trip.CurrentBookings,
        increment:   func() error { return s.Trips.IncrementBookingsTx(ctx, tx, trip.ID) },
        ledgerLabel: "Booked Trip: " + trip.Destination,
        idemKey:     idemKey,
    })
    if err != nil {
        return model.Booking{}, 0, err
    }

    if err := tx.Commit(); err != nil {
        return model.Booking{}, 0, fmt.Errorf("commit booking tx: %w", err)
    }
    committed = true

    s.notifyBooked(ctx, userID, booking)
    return booking, newBalance, nil
}

// BookShuttle books one seat on a transport route. Same engine as
// BookTrip; only the item table and the slot arithmetic differ.
func (s *BookingService) BookShuttle(ctx context.Context, userID, routeID uint64, idemKey string) (model.Booking, int64, error) {
    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return model.Booking{}, 0, fmt.Errorf("begin booking tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            tx.Rollback()
        }
    }()

    if idemKey != "" {
        seen, err := s.Ledger.KeyExistsTx(ctx, tx, idemKey)
        if err != nil {
            return model.Booking{}, 0, err
        }
        if seen {
            return model.Booking{}, 0, repository.ErrDuplicateRequest
        }
    }

    route, err := s.Transport.GetForUpdateTx(ctx, tx, routeID)
    if err != nil {
        return model.Booking{}, 0, err
    }
    if route.Status != model.ItemStatusActive {
        return model.Booking{}, 0, repository.ErrNotOpen
    }

    booking, newBalance, err := s.settleBooking(ctx, tx, settleParams{
        userID:      userID,
        itemType:    model.ItemShuttle,
        itemID:      route.ID,
        label:       route.RouteName,
        priceCents:  route.PriceCents,
        slotsLeft:   route.Capacity > route.CurrentBookings,
        increment:   func() error { return s.Transport.IncrementBookingsTx(ctx, tx, route.ID) },
        ledgerLabel: "Booked Transport: " + route.RouteName,
        idemKey:     idemKey,
    })
    if err != nil {
        return model.Booking{}, 0, err
    }

    if err := tx.Commit(); err != nil {
        return model.Booking{}, 0, fmt.Errorf("commit booking tx: %w", err)
    }
    committed = true

    s.notifyBooked(ctx, userID, booking)
    return booking, newBalance, nil
}

// settleParams carries the per-item-type pieces of a booking attempt
// into the shared settlement path.
type settleParams struct {
    userID      uint64
    itemType    string
    itemID      uint64
    label       string
    priceCents  int64
    slotsLeft   bool
    increment   func() error
    ledgerLabel string
    idemKey     string
}

// settleBooking runs the shared tail of both booking flows against
// rows the caller has already locked: duplicate check, funds check,
// capacity check, then the three writes (wallet, occupancy, booking
// row) plus the ledger entry. A previously cancelled booking for the
// same item is revived in place instead of inserting a second row.
// The second return value is the wallet balance after the debit.
func (s *BookingService) settleBooking(ctx context.Context, tx *sql.Tx, p settleParams) (model.Booking, int64, error) {
    prior, err := s.Bookings.FindForItemTx(ctx, tx, p.userID, p.itemType, p.itemID)
    rebook := false
    switch {
    case err == nil:
        if prior.Status == model.BookingActive {
            return model.Booking{}, 0, repository.ErrAlreadyBooked
        }
        rebook = true
    case errors.Is(err, repository.ErrBookingNotFound):
        // first booking for this item
    default:
        return model.Booking{}, 0, err
    }

    balance, err := s.Users.WalletForUpdateTx(ctx, tx, p.userID)
    if err != nil {
        return model.Booking{}, 0, err
    }
    if balance < p.priceCents {
        return model.Booking{}, 0, repository.ErrInsufficientFunds
    }

    if !p.slotsLeft {
        return model.Booking{}, 0, repository.ErrCapacityExceeded
    }

    if err := s.Users.AdjustWalletTx(ctx, tx, p.userID, -p.priceCents); err != nil {
        return model.Booking{}, 0, err
    }
    if err := p.increment(); err != nil {
        return model.Booking{}, 0, err
    }

    booking := model.Booking{
        UserID:      p.userID,
        ItemType:    p.itemType,
        ItemID:      p.itemID,
        Label:       p.label,
        AmountCents: p.priceCents,
        Status:      model.BookingActive,
    }
    if rebook {
        if err := s.Bookings.ReactivateTx(ctx, tx, prior.ID, p.priceCents); err != nil {
            return model.Booking{}, 0, err
        }
        booking.ID = prior.ID
    } else {
        id, err := s.Bookings.CreateTx(ctx, tx, booking)
        if err != nil {
            return model.Booking{}, 0, err
        }
        booking.ID = id
    }

    _, err = s.Ledger.AppendTx(ctx, tx, model.WalletTransaction{
        UserID:         p.userID,
        AmountCents:    p.priceCents,
        Type:           model.TxDebit,
        Status:         model.TxCompleted,
        Details:        p.ledgerLabel,
        Reference:      uuid.NewString(),
        IdempotencyKey: p.idemKey,
    })
    if err != nil {
        return model.Booking{}, 0, err
    }
    return booking, balance - p.priceCents, nil
}

// CancelResult reports what a cancellation produced: the amount filed
// as a refund request and the tier it came from, as a percentage
// string ("100%", "50%" or "0%").
type CancelResult struct {
    RefundCents   int64
    RefundPercent string
}

// Cancel cancels the user's booking and files the refund the policy
// allows. Trip refunds are tiered by lead time before departure;
// transport refunds are always full. A non-zero refund enters the
// admin queue as a PENDING request, it is not credited here.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID uint64) (CancelResult, error) {
    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return CancelResult{}, fmt.Errorf("begin cancel tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            tx.Rollback()
        }
    }()

    booking, err := s.Bookings.GetForUpdateTx(ctx, tx, bookingID)
    if err != nil {
        return CancelResult{}, err
    }
    if booking.UserID != userID {
        return CancelResult{}, repository.ErrForbidden
    }
    if booking.Status == model.BookingCancelled {
        return CancelResult{}, repository.ErrAlreadyCancelled
    }

    var refundCents int64
    switch booking.ItemType {
    case model.ItemTrip:
        trip, err := s.Trips.GetForUpdateTx(ctx, tx, booking.ItemID)
        if err != nil {
            return CancelResult{}, err
        }
        refundCents = tripRefundCents(booking.AmountCents, trip.TripDate, s.clock())
        if err := s.Trips.DecrementBookingsTx(ctx, tx, trip.ID); err != nil {
            return CancelResult{}, err
        }
    case model.ItemShuttle:
        route, err := s.Transport.GetForUpdateTx(ctx, tx, booking.ItemID)
        if err != nil {
            return CancelResult{}, err
        }
        refundCents = booking.AmountCents
        if err := s.Transport.DecrementBookingsTx(ctx, tx, route.ID); err != nil {
            return CancelResult{}, err
        }
    default:
        return CancelResult{}, repository.ErrItemNotFound
    }

    if err := s.Bookings.CancelTx(ctx, tx, booking.ID); err != nil {
        return CancelResult{}, err
    }

    var refundID uint64
    if refundCents > 0 {
        refundID, err = s.Refunds.CreateTx(ctx, tx, model.RefundRequest{
            UserID:      userID,
            BookingID:   booking.ID,
            Label:       booking.Label,
            AmountCents: refundCents,
            Status:      model.RefundPending,
        })
        if err != nil {
            return CancelResult{}, err
        }
    }

    if err := tx.Commit(); err != nil {
        return CancelResult{}, fmt.Errorf("commit cancel tx: %w", err)
    }
    committed = true

    if refundCents > 0 {
        s.notifyRefundRequested(ctx, userID, booking, refundID, refundCents)
    }
    return CancelResult{
        RefundCents:   refundCents,
        RefundPercent: refundPercent(booking.AmountCents, refundCents),
    }, nil
}

// MyBookings lists the caller's active bookings, optionally filtered
// to one item type.
func (s *BookingService) MyBookings(ctx context.Context, userID uint64, itemType string) ([]model.Booking, error) {
    return s.Bookings.ListActiveByUser(ctx, userID, itemType)
}

func (s *BookingService) notifyBooked(ctx context.Context, userID uint64, b model.Booking) {
    u, err := s.Users.GetByID(ctx, userID)
    if err != nil {
        return
    }
    notifyAsync(s.Notifier, queue.Notification{
        Kind:           queue.KindBookingConfirmed,
        UserID:         userID,
        RecipientName:  u.Name,
        RecipientEmail: u.Email,
        ItemLabel:      b.Label,
        AmountCents:    b.AmountCents,
        BookingID:      b.ID,
    })
}

func (s *BookingService) notifyRefundRequested(ctx context.Context, userID uint64, b model.Booking, refundID uint64, refundCents int64) {
    u, err := s.Users.GetByID(ctx, userID)
    if err != nil {
        return
    }
    notifyAsync(s.Notifier, queue.Notification{
        Kind:           queue.KindRefundRequested,
        UserID:         userID,
        RecipientName:  u.Name,
        RecipientEmail: u.Email,
        ItemLabel:      b.Label,
        AmountCents:    refundCents,
        BookingID:      b.ID,
        RefundID:       refundID,
    })
}
