package service

import (
    "context"
    "database/sql"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/uniscape-booking/internal/model"
    "github.com/iliyamo/uniscape-booking/internal/queue"
    "github.com/iliyamo/uniscape-booking/internal/repository"
)

const (
    qTripForUpdate    = "SELECT id, destination, description, trip_date, original_price_cents, sale_price_cents, max_participants, current_bookings, status, category, created_at, updated_at FROM trips WHERE id=? FOR UPDATE"
    qRouteForUpdate   = "SELECT id, route_name, kind, departure_time, travel_date, price_cents, capacity, current_bookings, status, created_at, updated_at FROM transport_routes WHERE id=? FOR UPDATE"
    qBookingForItem   = "SELECT id, user_id, item_type, item_id, label, amount_cents, status, booked_at, updated_at FROM bookings WHERE user_id=? AND item_type=? AND item_id=? FOR UPDATE"
    qBookingForUpdate = "SELECT id, user_id, item_type, item_id, label, amount_cents, status, booked_at, updated_at FROM bookings WHERE id=? FOR UPDATE"
    qWalletForUpdate  = "SELECT wallet_cents FROM users WHERE id=? FOR UPDATE"
    qAdjustWallet     = "UPDATE users SET wallet_cents = wallet_cents + ?, updated_at = NOW() WHERE id=? AND wallet_cents + ? >= 0"
    qIncTrip          = "UPDATE trips SET current_bookings = current_bookings + 1, updated_at=NOW() WHERE id=?"
    qDecTrip          = "UPDATE trips SET current_bookings = current_bookings - 1, updated_at=NOW() WHERE id=? AND current_bookings > 0"
    qDecRoute         = "UPDATE transport_routes SET current_bookings = current_bookings - 1, updated_at=NOW() WHERE id=? AND current_bookings > 0"
    qInsertBooking    = "INSERT INTO bookings (user_id, item_type, item_id, label, amount_cents, status) VALUES (?,?,?,?,?,?)"
    qReactivate       = "UPDATE bookings SET status=?, amount_cents=?, booked_at=NOW(), updated_at=NOW() WHERE id=?"
    qCancelBooking    = "UPDATE bookings SET status=?, updated_at=NOW() WHERE id=?"
    qInsertLedger     = "INSERT INTO wallet_transactions (user_id, amount_cents, type, status, details, reference, idempotency_key) VALUES (?,?,?,?,?,?,?)"
    qKeyExists        = "SELECT 1 FROM wallet_transactions WHERE idempotency_key=? LIMIT 1"
    qInsertRefund     = "INSERT INTO refund_requests (user_id, booking_id, label, amount_cents, status) VALUES (?,?,?,?,?)"
    qUserByID         = "SELECT id,name,email,phone,password_hash,role,wallet_cents,referral_code,created_at,updated_at FROM users WHERE id=? LIMIT 1"
)

func quoted(q string) string { return regexp.QuoteMeta(q) }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// recordingNotifier captures published notifications so tests can wait
// for the async dispatch instead of sleeping.
type recordingNotifier struct {
    ch chan queue.Notification
}

func newRecordingNotifier() *recordingNotifier {
    return &recordingNotifier{ch: make(chan queue.Notification, 4)}
}

func (r *recordingNotifier) Publish(_ context.Context, n queue.Notification) error {
    r.ch <- n
    return nil
}

func (r *recordingNotifier) wait(t *testing.T) queue.Notification {
    t.Helper()
    select {
    case n := <-r.ch:
        return n
    case <-time.After(2 * time.Second):
        t.Fatal("no notification published")
        return queue.Notification{}
    }
}

func newBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock, *recordingNotifier) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    rec := newRecordingNotifier()
    svc := &BookingService{
        DB:        db,
        Users:     repository.NewUserRepo(db),
        Trips:     repository.NewTripRepo(db),
        Transport: repository.NewTransportRepo(db),
        Bookings:  repository.NewBookingRepo(db),
        Ledger:    repository.NewLedgerRepo(db),
        Refunds:   repository.NewRefundRepo(db),
        Notifier:  rec,
        Now:       func() time.Time { return testNow },
    }
    return svc, mock, rec
}

func tripRow(id uint64, price int64, maxPart, current uint32, date time.Time) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "destination", "description", "trip_date", "original_price_cents",
        "sale_price_cents", "max_participants", "current_bookings", "status",
        "category", "created_at", "updated_at",
    }).AddRow(id, "Chiang Mai", "three days up north", date, price+2000, price,
        maxPart, current, "active", "nature", testNow, testNow)
}

func routeRow(id uint64, price int64, capacity, current uint32) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "route_name", "kind", "departure_time", "travel_date", "price_cents",
        "capacity", "current_bookings", "status", "created_at", "updated_at",
    }).AddRow(id, "Campus - Airport", "SHUTTLE", "08:30", testNow.Add(24*time.Hour),
        price, capacity, current, "active", testNow, testNow)
}

func bookingRow(id, userID uint64, itemType string, itemID uint64, amount int64, status string) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "user_id", "item_type", "item_id", "label", "amount_cents",
        "status", "booked_at", "updated_at",
    }).AddRow(id, userID, itemType, itemID, "Chiang Mai", amount, status, testNow, testNow)
}

func userRow(id uint64) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "name", "email", "phone", "password_hash", "role", "wallet_cents",
        "referral_code", "created_at", "updated_at",
    }).AddRow(id, "Nok", "nok@example.com", "0812345678", "x", "STUDENT", 10000, "ABCD2345", testNow, testNow)
}

func TestBookTripDebitsWalletAndBumpsOccupancy(t *testing.T) {
    svc, mock, rec := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qTripForUpdate)).WithArgs(uint64(5)).
        WillReturnRows(tripRow(5, 8000, 30, 10, testNow.Add(96*time.Hour)))
    mock.ExpectQuery(quoted(qBookingForItem)).WithArgs(uint64(1), "TRIP", uint64(5)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectQuery(quoted(qWalletForUpdate)).WithArgs(uint64(1)).
        WillReturnRows(sqlmock.NewRows([]string{"wallet_cents"}).AddRow(10000))
    mock.ExpectExec(quoted(qAdjustWallet)).WithArgs(int64(-8000), uint64(1), int64(-8000)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qIncTrip)).WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qInsertBooking)).
        WithArgs(uint64(1), "TRIP", uint64(5), "Chiang Mai", int64(8000), "ACTIVE").
        WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectExec(quoted(qInsertLedger)).
        WithArgs(uint64(1), int64(8000), "DEBIT", "COMPLETED", "Booked Trip: Chiang Mai", sqlmock.AnyArg(), nil).
        WillReturnResult(sqlmock.NewResult(100, 1))
    mock.ExpectCommit()
    mock.ExpectQuery(quoted(qUserByID)).WithArgs(uint64(1)).WillReturnRows(userRow(1))

    b, balance, err := svc.BookTrip(context.Background(), 1, 5, "")
    require.NoError(t, err)
    assert.Equal(t, uint64(42), b.ID)
    assert.Equal(t, int64(8000), b.AmountCents)
    assert.Equal(t, model.BookingActive, b.Status)
    assert.Equal(t, int64(2000), balance)

    n := rec.wait(t)
    assert.Equal(t, queue.KindBookingConfirmed, n.Kind)
    assert.Equal(t, uint64(42), n.BookingID)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTripInsufficientFundsRollsBack(t *testing.T) {
    svc, mock, _ := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qTripForUpdate)).WithArgs(uint64(5)).
        WillReturnRows(tripRow(5, 8000, 30, 10, testNow.Add(96*time.Hour)))
    mock.ExpectQuery(quoted(qBookingForItem)).WithArgs(uint64(1), "TRIP", uint64(5)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectQuery(quoted(qWalletForUpdate)).WithArgs(uint64(1)).
        WillReturnRows(sqlmock.NewRows([]string{"wallet_cents"}).AddRow(7999))
    mock.ExpectRollback()

    _, _, err := svc.BookTrip(context.Background(), 1, 5, "")
    assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTripFundsCheckedBeforeCapacity(t *testing.T) {
    svc, mock, _ := newBookingService(t)

    // Trip is full AND the wallet is short; the funds failure must win.
    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qTripForUpdate)).WithArgs(uint64(5)).
        WillReturnRows(tripRow(5, 8000, 30, 30, testNow.Add(96*time.Hour)))
    mock.ExpectQuery(quoted(qBookingForItem)).WithArgs(uint64(1), "TRIP", uint64(5)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectQuery(quoted(qWalletForUpdate)).WithArgs(uint64(1)).
        WillReturnRows(sqlmock.NewRows([]string{"wallet_cents"}).AddRow(100))
    mock.ExpectRollback()

    _, _, err := svc.BookTrip(context.Background(), 1, 5, "")
    assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTripRejectsActiveDuplicate(t *testing.T) {
    svc, mock, _ := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qTripForUpdate)).WithArgs(uint64(5)).
        WillReturnRows(tripRow(5, 8000, 30, 10, testNow.Add(96*time.Hour)))
    mock.ExpectQuery(quoted(qBookingForItem)).WithArgs(uint64(1), "TRIP", uint64(5)).
        WillReturnRows(bookingRow(42, 1, "TRIP", 5, 8000, "ACTIVE"))
    mock.ExpectRollback()

    _, _, err := svc.BookTrip(context.Background(), 1, 5, "")
    assert.ErrorIs(t, err, repository.ErrAlreadyBooked)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTripRevivesCancelledBooking(t *testing.T) {
    svc, mock, rec := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qTripForUpdate)).WithArgs(uint64(5)).
        WillReturnRows(tripRow(5, 9000, 30, 10, testNow.Add(96*time.Hour)))
    mock.ExpectQuery(quoted(qBookingForItem)).WithArgs(uint64(1), "TRIP", uint64(5)).
        WillReturnRows(bookingRow(42, 1, "TRIP", 5, 8000, "CANCELLED"))
    mock.ExpectQuery(quoted(qWalletForUpdate)).WithArgs(uint64(1)).
        WillReturnRows(sqlmock.NewRows([]string{"wallet_cents"}).AddRow(20000))
    mock.ExpectExec(quoted(qAdjustWallet)).WithArgs(int64(-9000), uint64(1), int64(-9000)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qIncTrip)).WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    // The old row is revived at the current price, no new row.
    mock.ExpectExec(quoted(qReactivate)).WithArgs("ACTIVE", int64(9000), uint64(42)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qInsertLedger)).
        WithArgs(uint64(1), int64(9000), "DEBIT", "COMPLETED", "Booked Trip: Chiang Mai", sqlmock.AnyArg(), nil).
        WillReturnResult(sqlmock.NewResult(101, 1))
    mock.ExpectCommit()
    mock.ExpectQuery(quoted(qUserByID)).WithArgs(uint64(1)).WillReturnRows(userRow(1))

    b, balance, err := svc.BookTrip(context.Background(), 1, 5, "")
    require.NoError(t, err)
    assert.Equal(t, uint64(42), b.ID)
    assert.Equal(t, int64(9000), b.AmountCents)
    assert.Equal(t, int64(11000), balance)

    rec.wait(t)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTripRejectsReplayedIdempotencyKey(t *testing.T) {
    svc, mock, _ := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qKeyExists)).WithArgs("retry-abc").
        WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
    mock.ExpectRollback()

    _, _, err := svc.BookTrip(context.Background(), 1, 5, "retry-abc")
    assert.ErrorIs(t, err, repository.ErrDuplicateRequest)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTripRejectsComingSoonTrip(t *testing.T) {
    svc, mock, _ := newBookingService(t)

    rows := sqlmock.NewRows([]string{
        "id", "destination", "description", "trip_date", "original_price_cents",
        "sale_price_cents", "max_participants", "current_bookings", "status",
        "category", "created_at", "updated_at",
    }).AddRow(uint64(5), "Chiang Mai", "three days up north", testNow.Add(96*time.Hour),
        int64(10000), int64(8000), uint32(30), uint32(10), "coming_soon", "nature", testNow, testNow)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qTripForUpdate)).WithArgs(uint64(5)).WillReturnRows(rows)
    mock.ExpectRollback()

    _, _, err := svc.BookTrip(context.Background(), 1, 5, "")
    assert.ErrorIs(t, err, repository.ErrNotOpen)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookShuttleRejectsFullRoute(t *testing.T) {
    svc, mock, _ := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qRouteForUpdate)).WithArgs(uint64(3)).
        WillReturnRows(routeRow(3, 1500, 12, 12))
    mock.ExpectQuery(quoted(qBookingForItem)).WithArgs(uint64(1), "SHUTTLE", uint64(3)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectQuery(quoted(qWalletForUpdate)).WithArgs(uint64(1)).
        WillReturnRows(sqlmock.NewRows([]string{"wallet_cents"}).AddRow(5000))
    mock.ExpectRollback()

    _, _, err := svc.BookShuttle(context.Background(), 1, 3, "")
    assert.ErrorIs(t, err, repository.ErrCapacityExceeded)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTripFullRefundAtFortyEightHours(t *testing.T) {
    svc, mock, rec := newBookingService(t)

    // Departure exactly 48h out: full refund tier.
    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qBookingForUpdate)).WithArgs(uint64(42)).
        WillReturnRows(bookingRow(42, 1, "TRIP", 5, 8000, "ACTIVE"))
    mock.ExpectQuery(quoted(qTripForUpdate)).WithArgs(uint64(5)).
        WillReturnRows(tripRow(5, 8000, 30, 11, testNow.Add(48*time.Hour)))
    mock.ExpectExec(quoted(qDecTrip)).WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qCancelBooking)).WithArgs("CANCELLED", uint64(42)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qInsertRefund)).
        WithArgs(uint64(1), uint64(42), "Chiang Mai", int64(8000), "PENDING").
        WillReturnResult(sqlmock.NewResult(7, 1))
    mock.ExpectCommit()
    mock.ExpectQuery(quoted(qUserByID)).WithArgs(uint64(1)).WillReturnRows(userRow(1))

    res, err := svc.Cancel(context.Background(), 1, 42)
    require.NoError(t, err)
    assert.Equal(t, int64(8000), res.RefundCents)
    assert.Equal(t, "100%", res.RefundPercent)

    n := rec.wait(t)
    assert.Equal(t, queue.KindRefundRequested, n.Kind)
    assert.Equal(t, uint64(7), n.RefundID)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTripHalfRefundInsideWindow(t *testing.T) {
    svc, mock, rec := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qBookingForUpdate)).WithArgs(uint64(42)).
        WillReturnRows(bookingRow(42, 1, "TRIP", 5, 8000, "ACTIVE"))
    mock.ExpectQuery(quoted(qTripForUpdate)).WithArgs(uint64(5)).
        WillReturnRows(tripRow(5, 8000, 30, 11, testNow.Add(30*time.Hour)))
    mock.ExpectExec(quoted(qDecTrip)).WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qCancelBooking)).WithArgs("CANCELLED", uint64(42)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qInsertRefund)).
        WithArgs(uint64(1), uint64(42), "Chiang Mai", int64(4000), "PENDING").
        WillReturnResult(sqlmock.NewResult(8, 1))
    mock.ExpectCommit()
    mock.ExpectQuery(quoted(qUserByID)).WithArgs(uint64(1)).WillReturnRows(userRow(1))

    res, err := svc.Cancel(context.Background(), 1, 42)
    require.NoError(t, err)
    assert.Equal(t, int64(4000), res.RefundCents)
    assert.Equal(t, "50%", res.RefundPercent)

    rec.wait(t)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTripNoRefundInsideTwentyFourHours(t *testing.T) {
    svc, mock, _ := newBookingService(t)

    // Late cancellation: seat is released but no refund request is filed.
    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qBookingForUpdate)).WithArgs(uint64(42)).
        WillReturnRows(bookingRow(42, 1, "TRIP", 5, 8000, "ACTIVE"))
    mock.ExpectQuery(quoted(qTripForUpdate)).WithArgs(uint64(5)).
        WillReturnRows(tripRow(5, 8000, 30, 11, testNow.Add(23*time.Hour)))
    mock.ExpectExec(quoted(qDecTrip)).WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qCancelBooking)).WithArgs("CANCELLED", uint64(42)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    res, err := svc.Cancel(context.Background(), 1, 42)
    require.NoError(t, err)
    assert.Equal(t, int64(0), res.RefundCents)
    assert.Equal(t, "0%", res.RefundPercent)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelShuttleAlwaysRefundsInFull(t *testing.T) {
    svc, mock, rec := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qBookingForUpdate)).WithArgs(uint64(50)).
        WillReturnRows(bookingRow(50, 1, "SHUTTLE", 3, 1500, "ACTIVE"))
    mock.ExpectQuery(quoted(qRouteForUpdate)).WithArgs(uint64(3)).
        WillReturnRows(routeRow(3, 1500, 12, 9))
    mock.ExpectExec(quoted(qDecRoute)).WithArgs(uint64(3)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qCancelBooking)).WithArgs("CANCELLED", uint64(50)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qInsertRefund)).
        WithArgs(uint64(1), uint64(50), "Chiang Mai", int64(1500), "PENDING").
        WillReturnResult(sqlmock.NewResult(9, 1))
    mock.ExpectCommit()
    mock.ExpectQuery(quoted(qUserByID)).WithArgs(uint64(1)).WillReturnRows(userRow(1))

    res, err := svc.Cancel(context.Background(), 1, 50)
    require.NoError(t, err)
    assert.Equal(t, int64(1500), res.RefundCents)
    assert.Equal(t, "100%", res.RefundPercent)

    rec.wait(t)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRejectsForeignBooking(t *testing.T) {
    svc, mock, _ := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qBookingForUpdate)).WithArgs(uint64(42)).
        WillReturnRows(bookingRow(42, 9, "TRIP", 5, 8000, "ACTIVE"))
    mock.ExpectRollback()

    _, err := svc.Cancel(context.Background(), 1, 42)
    assert.ErrorIs(t, err, repository.ErrForbidden)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRejectsAlreadyCancelled(t *testing.T) {
    svc, mock, _ := newBookingService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qBookingForUpdate)).WithArgs(uint64(42)).
        WillReturnRows(bookingRow(42, 1, "TRIP", 5, 8000, "CANCELLED"))
    mock.ExpectRollback()

    _, err := svc.Cancel(context.Background(), 1, 42)
    assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
    assert.NoError(t, mock.ExpectationsWereMet())
}
