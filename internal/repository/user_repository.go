package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/uniscape-booking/internal/model"
	"github.com/iliyamo/uniscape-booking/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID. The wallet starts at
// initialCents (0 unless a referral bonus applies).
func (r *UserRepo) Create(ctx context.Context, u model.User, password string, cost int, initialCents int64) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, phone, password_hash, role, wallet_cents, referral_code) VALUES (?,?,?,?,?,?,?)",
		u.Name, email, u.Phone, hash, u.Role, initialCents, u.ReferralCode)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,phone,password_hash,role,wallet_cents,referral_code,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.WalletCents, &u.ReferralCode, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,phone,password_hash,role,wallet_cents,referral_code,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.WalletCents, &u.ReferralCode, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// FindByReferralCode returns the owner of a referral code, or
// sql.ErrNoRows when the code is unknown.
func (r *UserRepo) FindByReferralCode(ctx context.Context, code string) (uint64, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE referral_code=? LIMIT 1", code).Scan(&id)
	return id, err
}

// WalletBalance returns the current wallet balance outside any
// transaction. Use WalletForUpdateTx inside booking units instead.
func (r *UserRepo) WalletBalance(ctx context.Context, userID uint64) (int64, error) {
	var cents int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT wallet_cents FROM users WHERE id=? LIMIT 1", userID).Scan(&cents)
	return cents, err
}

// WalletForUpdateTx reads the wallet balance under a row lock so that
// the balance cannot change until the surrounding transaction commits
// or rolls back. This is what makes "check funds then debit" safe
// against concurrent bookings by the same user.
func (r *UserRepo) WalletForUpdateTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
	var cents int64
	err := tx.QueryRowContext(ctx,
		"SELECT wallet_cents FROM users WHERE id=? FOR UPDATE", userID).Scan(&cents)
	return cents, err
}

// AdjustWalletTx applies a signed delta to the wallet balance inside
// the caller's transaction. Callers must have validated the resulting
// balance under WalletForUpdateTx first; the WHERE guard is a second
// line against a negative balance ever committing.
func (r *UserRepo) AdjustWalletTx(ctx context.Context, tx *sql.Tx, userID uint64, deltaCents int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET wallet_cents = wallet_cents + ?, updated_at = NOW() WHERE id=? AND wallet_cents + ? >= 0",
		deltaCents, userID, deltaCents)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// List returns all users ordered by creation time, newest first.
// Password hashes are included; handlers must not serialize them.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,email,phone,password_hash,role,wallet_cents,referral_code,created_at,updated_at FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.WalletCents, &u.ReferralCode, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh returns userID if a non-revoked, non-expired token exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid {
		return 0, sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
