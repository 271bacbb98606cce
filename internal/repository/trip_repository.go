package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/uniscape-booking/internal/model"
)

// TripRepo encapsulates database operations for the trips table. The
// occupancy counter is only ever touched through the ...Tx methods so
// that every change happens inside a booking or cancellation unit.
type TripRepo struct{ DB *sql.DB }

func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{DB: db} }

const tripColumns = "id, destination, description, trip_date, original_price_cents, sale_price_cents, max_participants, current_bookings, status, category, created_at, updated_at"

func scanTrip(row interface{ Scan(...interface{}) error }) (model.Trip, error) {
	var t model.Trip
	err := row.Scan(&t.ID, &t.Destination, &t.Description, &t.TripDate,
		&t.OriginalPriceCents, &t.SalePriceCents, &t.MaxParticipants,
		&t.CurrentBookings, &t.Status, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create inserts a trip and returns its ID.
func (r *TripRepo) Create(ctx context.Context, t model.Trip) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO trips (destination, description, trip_date, original_price_cents, sale_price_cents, max_participants, status, category) VALUES (?,?,?,?,?,?,?,?)",
		t.Destination, t.Description, t.TripDate, t.OriginalPriceCents, t.SalePriceCents, t.MaxParticipants, t.Status, t.Category)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites the editable fields of a trip. The occupancy counter
// is deliberately excluded; it belongs to the booking engine.
func (r *TripRepo) Update(ctx context.Context, t model.Trip) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE trips SET destination=?, description=?, trip_date=?, original_price_cents=?, sale_price_cents=?, max_participants=?, status=?, category=?, updated_at=NOW() WHERE id=?",
		t.Destination, t.Description, t.TripDate, t.OriginalPriceCents, t.SalePriceCents, t.MaxParticipants, t.Status, t.Category, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetStatus flips a trip between active and coming_soon.
func (r *TripRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE trips SET status=?, updated_at=NOW() WHERE id=?", status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a trip. Bookings referencing it survive as history.
func (r *TripRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM trips WHERE id=?", id)
	return err
}

// GetByID fetches a trip outside any transaction.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (model.Trip, error) {
	t, err := scanTrip(r.DB.QueryRowContext(ctx,
		"SELECT "+tripColumns+" FROM trips WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Trip{}, ErrItemNotFound
	}
	return t, err
}

// GetForUpdateTx fetches a trip under a row lock inside the caller's
// transaction. Every occupancy or price read the booking engine acts
// on comes through here, which is what makes duplicate and funds
// checks snapshot-consistent with the mutation that follows.
func (r *TripRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Trip, error) {
	t, err := scanTrip(tx.QueryRowContext(ctx,
		"SELECT "+tripColumns+" FROM trips WHERE id=? FOR UPDATE", id))
	if err == sql.ErrNoRows {
		return model.Trip{}, ErrItemNotFound
	}
	return t, err
}

// IncrementBookingsTx bumps the occupancy counter by one.
func (r *TripRepo) IncrementBookingsTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE trips SET current_bookings = current_bookings + 1, updated_at=NOW() WHERE id=?", id)
	return err
}

// DecrementBookingsTx lowers the occupancy counter, flooring at zero.
func (r *TripRepo) DecrementBookingsTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE trips SET current_bookings = current_bookings - 1, updated_at=NOW() WHERE id=? AND current_bookings > 0", id)
	return err
}

// List returns trips ordered by departure date. When activeOnly is
// set, coming_soon trips are filtered out (the public catalogue view).
func (r *TripRepo) List(ctx context.Context, activeOnly bool) ([]model.Trip, error) {
	q := "SELECT " + tripColumns + " FROM trips"
	if activeOnly {
		q += " WHERE status='active'"
	}
	q += " ORDER BY trip_date ASC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	trips := make([]model.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}
