package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/uniscape-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings. A booking groups
// a user with a trip or transport route and the amount captured at
// booking time. All lifecycle mutations (create, reactivate, cancel)
// run inside the caller's transaction so they commit or roll back as
// one unit with the wallet and occupancy changes.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingColumns = "id, user_id, item_type, item_id, label, amount_cents, status, booked_at, updated_at"

func scanBooking(row interface{ Scan(...interface{}) error }) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.ItemType, &b.ItemID, &b.Label,
		&b.AmountCents, &b.Status, &b.BookedAt, &b.UpdatedAt)
	return b, err
}

// FindForItemTx loads the single booking row for (user, item) under a
// row lock, if one exists. The UNIQUE(user_id, item_type, item_id)
// index guarantees at most one row; its status decides between the
// duplicate-booking rejection and the reactivation path.
func (r *BookingRepo) FindForItemTx(ctx context.Context, tx *sql.Tx, userID uint64, itemType string, itemID uint64) (model.Booking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id=? AND item_type=? AND item_id=? FOR UPDATE",
		userID, itemType, itemID))
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// CreateTx inserts a new ACTIVE booking and returns its ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b model.Booking) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (user_id, item_type, item_id, label, amount_cents, status) VALUES (?,?,?,?,?,?)",
		b.UserID, b.ItemType, b.ItemID, b.Label, b.AmountCents, model.BookingActive)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ReactivateTx flips a cancelled booking back to ACTIVE, refreshing
// the booking date and re-capturing the amount at the current price.
// Reusing the row keeps one historical record per (user, item) pair
// instead of growing a new row per book/cancel cycle.
func (r *BookingRepo) ReactivateTx(ctx context.Context, tx *sql.Tx, bookingID uint64, amountCents int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status=?, amount_cents=?, booked_at=NOW(), updated_at=NOW() WHERE id=?",
		model.BookingActive, amountCents, bookingID)
	return err
}

// ReactivateKeepAmountTx restores a cancelled booking without touching
// the captured amount. Used when a refund denial reinstates the
// booking the user already paid for.
func (r *BookingRepo) ReactivateKeepAmountTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status=?, updated_at=NOW() WHERE id=?",
		model.BookingActive, bookingID)
	return err
}

// CancelTx marks a booking as cancelled.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status=?, updated_at=NOW() WHERE id=?",
		model.BookingCancelled, bookingID)
	return err
}

// GetForUpdateTx loads a booking by id under a row lock.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (model.Booking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? FOR UPDATE", bookingID))
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// GetByID loads a booking outside any transaction.
func (r *BookingRepo) GetByID(ctx context.Context, bookingID uint64) (model.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", bookingID))
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// ListActiveByUser returns a user's ACTIVE bookings, optionally
// filtered by item type, newest first.
func (r *BookingRepo) ListActiveByUser(ctx context.Context, userID uint64, itemType string) ([]model.Booking, error) {
	q := "SELECT " + bookingColumns + " FROM bookings WHERE user_id=? AND status=?"
	args := []interface{}{userID, model.BookingActive}
	if itemType != "" {
		q += " AND item_type=?"
		args = append(args, itemType)
	}
	q += " ORDER BY booked_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ActiveBooker pairs a booking with the user who holds it. It backs
// the admin view of who is on a given trip or shuttle.
type ActiveBooker struct {
	BookingID   uint64    `json:"booking_id"`
	UserID      uint64    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	AmountCents int64     `json:"amount_cents"`
	BookedAt    time.Time `json:"booked_at"`
}

// ListActiveForItem returns all ACTIVE bookers of an item with their
// user details, newest first.
func (r *BookingRepo) ListActiveForItem(ctx context.Context, itemType string, itemID uint64) ([]ActiveBooker, error) {
	const q = `SELECT b.id, u.id, u.name, u.email, u.phone, b.amount_cents, b.booked_at
	           FROM bookings b
	           JOIN users u ON u.id = b.user_id
	           WHERE b.item_type=? AND b.item_id=? AND b.status=?
	           ORDER BY b.booked_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, itemType, itemID, model.BookingActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookers := make([]ActiveBooker, 0)
	for rows.Next() {
		var ab ActiveBooker
		if err := rows.Scan(&ab.BookingID, &ab.UserID, &ab.Name, &ab.Email, &ab.Phone, &ab.AmountCents, &ab.BookedAt); err != nil {
			return nil, err
		}
		bookers = append(bookers, ab)
	}
	return bookers, rows.Err()
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
