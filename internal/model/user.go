package model

import "time"

// Roles stored in users.role.  STUDENT accounts book trips and manage
// their own wallet; ADMIN accounts additionally resolve refunds, confirm
// top-ups and manage the catalogue.
const (
    RoleStudent = "STUDENT"
    RoleAdmin   = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  The wallet balance is held in currency minor units
// (cents) and is only ever mutated inside a booking, refund or top-up
// transaction; it must never go negative.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address.
//  Phone        – contact phone number (optional).
//  PasswordHash – bcrypt hashed password.
//  Role         – STUDENT or ADMIN.
//  WalletCents  – wallet balance in minor units, never negative.
//  ReferralCode – unique code this user can share with others.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    Phone        string    // users.phone
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    WalletCents  int64     // users.wallet_cents
    ReferralCode string    // users.referral_code
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
