package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/uniscape-booking/internal/repository"
	"github.com/iliyamo/uniscape-booking/internal/service"
)

const (
	qhTripForUpdate    = "SELECT id, destination, description, trip_date, original_price_cents, sale_price_cents, max_participants, current_bookings, status, category, created_at, updated_at FROM trips WHERE id=? FOR UPDATE"
	qhBookingForItem   = "SELECT id, user_id, item_type, item_id, label, amount_cents, status, booked_at, updated_at FROM bookings WHERE user_id=? AND item_type=? AND item_id=? FOR UPDATE"
	qhBookingForUpdate = "SELECT id, user_id, item_type, item_id, label, amount_cents, status, booked_at, updated_at FROM bookings WHERE id=? FOR UPDATE"
	qhWalletForUpdate  = "SELECT wallet_cents FROM users WHERE id=? FOR UPDATE"
	qhAdjustWallet     = "UPDATE users SET wallet_cents = wallet_cents + ?, updated_at = NOW() WHERE id=? AND wallet_cents + ? >= 0"
	qhIncTrip          = "UPDATE trips SET current_bookings = current_bookings + 1, updated_at=NOW() WHERE id=?"
	qhDecTrip          = "UPDATE trips SET current_bookings = current_bookings - 1, updated_at=NOW() WHERE id=? AND current_bookings > 0"
	qhInsertBooking    = "INSERT INTO bookings (user_id, item_type, item_id, label, amount_cents, status) VALUES (?,?,?,?,?,?)"
	qhCancelBooking    = "UPDATE bookings SET status=?, updated_at=NOW() WHERE id=?"
	qhInsertLedger     = "INSERT INTO wallet_transactions (user_id, amount_cents, type, status, details, reference, idempotency_key) VALUES (?,?,?,?,?,?,?)"
	qhInsertRefund     = "INSERT INTO refund_requests (user_id, booking_id, label, amount_cents, status) VALUES (?,?,?,?,?)"
	qhUserByID         = "SELECT id,name,email,phone,password_hash,role,wallet_cents,referral_code,created_at,updated_at FROM users WHERE id=? LIMIT 1"
)

var handlerNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newBookingHandler(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := &service.BookingService{
		DB:        db,
		Users:     repository.NewUserRepo(db),
		Trips:     repository.NewTripRepo(db),
		Transport: repository.NewTransportRepo(db),
		Bookings:  repository.NewBookingRepo(db),
		Ledger:    repository.NewLedgerRepo(db),
		Refunds:   repository.NewRefundRepo(db),
		Now:       func() time.Time { return handlerNow },
	}
	return NewBookingHandler(svc), mock
}

func handlerTripRow(price int64, date time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "destination", "description", "trip_date", "original_price_cents",
		"sale_price_cents", "max_participants", "current_bookings", "status",
		"category", "created_at", "updated_at",
	}).AddRow(5, "Chiang Mai", "up north", date, price+2000, price, 30, 10,
		"active", "nature", handlerNow, handlerNow)
}

func handlerUserRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "password_hash", "role", "wallet_cents",
		"referral_code", "created_at", "updated_at",
	}).AddRow(1, "Nok", "nok@example.com", "", "x", "STUDENT", 2000, "ABCD2345",
		handlerNow, handlerNow)
}

func bookingCtx(e *echo.Echo, method, target, id string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(1)) // as JWT claims arrive
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestBookTripResponseCarriesNewBalance(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qhTripForUpdate)).WithArgs(uint64(5)).
		WillReturnRows(handlerTripRow(8000, handlerNow.Add(96*time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta(qhBookingForItem)).WithArgs(uint64(1), "TRIP", uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(qhWalletForUpdate)).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_cents"}).AddRow(10000))
	mock.ExpectExec(regexp.QuoteMeta(qhAdjustWallet)).WithArgs(int64(-8000), uint64(1), int64(-8000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(qhIncTrip)).WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(qhInsertBooking)).
		WithArgs(uint64(1), "TRIP", uint64(5), "Chiang Mai", int64(8000), "ACTIVE").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(qhInsertLedger)).
		WithArgs(uint64(1), int64(8000), "DEBIT", "COMPLETED", "Booked Trip: Chiang Mai", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(qhUserByID)).WithArgs(uint64(1)).
		WillReturnRows(handlerUserRow())

	e := echo.New()
	c, rec := bookingCtx(e, http.MethodPost, "/v1/trips/5/book", "5")
	require.NoError(t, h.BookTrip(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var out struct {
		Booking struct {
			ID          uint64 `json:"id"`
			AmountCents int64  `json:"amount_cents"`
		} `json:"booking"`
		BalanceCents int64 `json:"balance_cents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, uint64(42), out.Booking.ID)
	assert.Equal(t, int64(8000), out.Booking.AmountCents)
	// Wallet had 10000 and the trip cost 8000.
	assert.Equal(t, int64(2000), out.BalanceCents)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelResponseReportsTierAndAmount(t *testing.T) {
	h, mock := newBookingHandler(t)

	// Departure 30h out: half-refund tier on an 8000 booking.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qhBookingForUpdate)).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "item_type", "item_id", "label", "amount_cents",
			"status", "booked_at", "updated_at",
		}).AddRow(42, 1, "TRIP", 5, "Chiang Mai", 8000, "ACTIVE", handlerNow, handlerNow))
	mock.ExpectQuery(regexp.QuoteMeta(qhTripForUpdate)).WithArgs(uint64(5)).
		WillReturnRows(handlerTripRow(8000, handlerNow.Add(30*time.Hour)))
	mock.ExpectExec(regexp.QuoteMeta(qhDecTrip)).WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(qhCancelBooking)).WithArgs("CANCELLED", uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(qhInsertRefund)).
		WithArgs(uint64(1), uint64(42), "Chiang Mai", int64(4000), "PENDING").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(qhUserByID)).WithArgs(uint64(1)).
		WillReturnRows(handlerUserRow())

	e := echo.New()
	c, rec := bookingCtx(e, http.MethodPost, "/v1/bookings/42/cancel", "42")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Cancelled     bool   `json:"cancelled"`
		RefundCents   int64  `json:"refund_cents"`
		RefundPercent string `json:"refund_percent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Cancelled)
	assert.Equal(t, int64(4000), out.RefundCents)
	assert.Equal(t, "50%", out.RefundPercent)

	assert.NoError(t, mock.ExpectationsWereMet())
}
