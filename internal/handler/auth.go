package handler

import (
    "context"              // provides context with cancellation for DB calls
    "database/sql"         // SQL database interactions
    "net/http"             // HTTP status codes and primitives
    "strings"              // string manipulation utilities
    "time"                 // timeouts for DB calls

    "github.com/golang-jwt/jwt/v5" // JSON Web Token library for parsing access tokens
    "github.com/google/uuid"       // ledger reference generation
    "github.com/labstack/echo/v4"  // Echo framework for HTTP routing

    "github.com/iliyamo/uniscape-booking/internal/config"     // app configuration
    "github.com/iliyamo/uniscape-booking/internal/model"      // domain models
    "github.com/iliyamo/uniscape-booking/internal/queue"      // outbound notifications
    "github.com/iliyamo/uniscape-booking/internal/repository" // DB repositories
    "github.com/iliyamo/uniscape-booking/internal/service"    // async notify plumbing
    "github.com/iliyamo/uniscape-booking/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg      config.Config
    Users    *repository.UserRepo
    Tokens   *repository.TokenRepo
    Ledger   *repository.LedgerRepo
    Notifier service.Notifier
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, l *repository.LedgerRepo, n service.Notifier) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Ledger: l, Notifier: n}
}

// ----- DTOs -----

type registerReq struct {
    Name         string `json:"name"`
    Email        string `json:"email"`
    Phone        string `json:"phone"`
    Password     string `json:"password"`
    ReferralCode string `json:"referral_code"` // optional code of an existing user
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID           uint64 `json:"id"`
    Name         string `json:"name"`
    Email        string `json:"email"`
    Role         string `json:"role"`
    ReferralCode string `json:"referral_code"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// Register: create a student account and return tokens immediately.
// Admin accounts are provisioned out of band, never through this
// endpoint. When a valid referral code is supplied, the new user's
// wallet starts with the configured bonus.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Name == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // Resolve the referrer before creating the account so a bad code
    // fails fast instead of silently dropping the bonus.
    var referrerID uint64
    if code := strings.ToUpper(strings.TrimSpace(req.ReferralCode)); code != "" {
        id, err := h.Users.FindByReferralCode(ctx, code)
        if err != nil {
            if err == sql.ErrNoRows {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown referral code"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
        }
        referrerID = id
    }

    ownCode, err := utils.NewReferralCode()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    // A valid code seeds the new account's wallet with the bonus.
    var bonusCents int64
    if referrerID != 0 && h.Cfg.ReferralBonusCents > 0 {
        bonusCents = h.Cfg.ReferralBonusCents
    }

    uid, err := h.Users.Create(ctx, model.User{
        Name:         req.Name,
        Email:        req.Email,
        Phone:        strings.TrimSpace(req.Phone),
        Role:         model.RoleStudent,
        ReferralCode: ownCode,
    }, req.Password, h.Cfg.BcryptCost, bonusCents)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    if bonusCents > 0 {
        h.recordReferralBonus(ctx, uid, bonusCents)
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, model.RoleStudent, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }

    if h.Notifier != nil {
        n := queue.Notification{
            Kind:           queue.KindUserRegistered,
            UserID:         uid,
            RecipientName:  req.Name,
            RecipientEmail: req.Email,
        }
        go h.Notifier.Publish(context.Background(), n)
    }

    return c.JSON(http.StatusCreated, authResp{
        User:    userPart{ID: uid, Name: req.Name, Email: req.Email, Role: model.RoleStudent, ReferralCode: ownCode},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}

// recordReferralBonus writes the ledger entry for the signup credit.
// The wallet already starts at the bonus via Create, so only the
// entry is appended here; a failure leaves the balance intact and
// must not fail the signup.
func (h *AuthHandler) recordReferralBonus(ctx context.Context, userID uint64, bonus int64) {
    _, _ = h.Ledger.Append(ctx, model.WalletTransaction{
        UserID:      userID,
        AmountCents: bonus,
        Type:        model.TxCredit,
        Status:      model.TxCompleted,
        Details:     "Referral Bonus",
        Reference:   uuid.NewString(),
    })
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }

    return c.JSON(http.StatusOK, authResp{
        User:    userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, ReferralCode: u.ReferralCode},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    })
}

// Refresh: validate by hash, revoke old, issue new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    raw := strings.TrimSpace(req.RefreshToken)
    hash := utils.HashRefreshRaw(raw)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(newRef.Raw), newRef.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }

    return c.JSON(http.StatusOK, authResp{
        User:    userPart{ID: userID, Name: u.Name, Email: u.Email, Role: u.Role, ReferralCode: u.ReferralCode},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
    })
}

// Logout revokes refresh tokens. With a `refresh_token` in the body,
// that session ends; with only a Bearer access token, every session of
// that user ends.
func (h *AuthHandler) Logout(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var req refreshReq
    _ = c.Bind(&req)
    if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
        hash := utils.HashRefreshRaw(raw)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }

    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token or bearer token required"})
    }
    tok, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(h.Cfg.JWTSecret), nil
    })
    if err != nil || !tok.Valid {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
    }
    sub, ok := claims["sub"].(float64)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
    }
    if err := h.Tokens.RevokeAllForUser(ctx, uint64(sub)); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile including the wallet
// balance and their referral code.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "id":            u.ID,
        "name":          u.Name,
        "email":         u.Email,
        "phone":         u.Phone,
        "role":          u.Role,
        "wallet_cents":  u.WalletCents,
        "referral_code": u.ReferralCode,
        "created_at":    u.CreatedAt,
    })
}
