package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/uniscape-booking/internal/model"
)

// TransportRepo encapsulates database operations for transport_routes.
// It mirrors TripRepo but carries a hard capacity: the booking engine
// reads the locked row and refuses to book a full route.
type TransportRepo struct{ DB *sql.DB }

func NewTransportRepo(db *sql.DB) *TransportRepo { return &TransportRepo{DB: db} }

const transportColumns = "id, route_name, kind, departure_time, travel_date, price_cents, capacity, current_bookings, status, created_at, updated_at"

func scanTransport(row interface{ Scan(...interface{}) error }) (model.TransportRoute, error) {
	var tr model.TransportRoute
	err := row.Scan(&tr.ID, &tr.RouteName, &tr.Kind, &tr.DepartureTime, &tr.TravelDate,
		&tr.PriceCents, &tr.Capacity, &tr.CurrentBookings, &tr.Status, &tr.CreatedAt, &tr.UpdatedAt)
	return tr, err
}

// Create inserts a transport route and returns its ID.
func (r *TransportRepo) Create(ctx context.Context, tr model.TransportRoute) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO transport_routes (route_name, kind, departure_time, travel_date, price_cents, capacity, status) VALUES (?,?,?,?,?,?,?)",
		tr.RouteName, tr.Kind, tr.DepartureTime, tr.TravelDate, tr.PriceCents, tr.Capacity, tr.Status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites the editable fields of a route, excluding the
// occupancy counter.
func (r *TransportRepo) Update(ctx context.Context, tr model.TransportRoute) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE transport_routes SET route_name=?, kind=?, departure_time=?, travel_date=?, price_cents=?, capacity=?, status=?, updated_at=NOW() WHERE id=?",
		tr.RouteName, tr.Kind, tr.DepartureTime, tr.TravelDate, tr.PriceCents, tr.Capacity, tr.Status, tr.ID)
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

// SetStatus flips a route between active and coming_soon.
func (r *TransportRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE transport_routes SET status=?, updated_at=NOW() WHERE id=?", status, id)
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

// Delete removes a route.
func (r *TransportRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM transport_routes WHERE id=?", id)
	return err
}

// GetByID fetches a route outside any transaction.
func (r *TransportRepo) GetByID(ctx context.Context, id uint64) (model.TransportRoute, error) {
	tr, err := scanTransport(r.DB.QueryRowContext(ctx,
		"SELECT "+transportColumns+" FROM transport_routes WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.TransportRoute{}, ErrItemNotFound
	}
	return tr, err
}

// GetForUpdateTx fetches a route under a row lock inside the caller's
// transaction. The capacity check and the occupancy bump both act on
// this locked snapshot, so racing bookings for the last seat serialize
// and only one wins.
func (r *TransportRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.TransportRoute, error) {
	tr, err := scanTransport(tx.QueryRowContext(ctx,
		"SELECT "+transportColumns+" FROM transport_routes WHERE id=? FOR UPDATE", id))
	if err == sql.ErrNoRows {
		return model.TransportRoute{}, ErrItemNotFound
	}
	return tr, err
}

// IncrementBookingsTx bumps the occupancy counter by one.
func (r *TransportRepo) IncrementBookingsTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE transport_routes SET current_bookings = current_bookings + 1, updated_at=NOW() WHERE id=?", id)
	return err
}

// DecrementBookingsTx lowers the occupancy counter, flooring at zero.
func (r *TransportRepo) DecrementBookingsTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE transport_routes SET current_bookings = current_bookings - 1, updated_at=NOW() WHERE id=? AND current_bookings > 0", id)
	return err
}

// List returns routes ordered by travel date. When activeOnly is set,
// coming_soon routes are filtered out.
func (r *TransportRepo) List(ctx context.Context, activeOnly bool) ([]model.TransportRoute, error) {
	q := "SELECT " + transportColumns + " FROM transport_routes"
	if activeOnly {
		q += " WHERE status='active'"
	}
	q += " ORDER BY travel_date ASC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	routes := make([]model.TransportRoute, 0)
	for rows.Next() {
		tr, err := scanTransport(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, tr)
	}
	return routes, rows.Err()
}
