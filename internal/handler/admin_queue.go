package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uniscape-booking/internal/repository"
    "github.com/iliyamo/uniscape-booking/internal/service"
)

// AdminQueueHandler serves the two admin work queues: refund requests
// awaiting approval and pending wallet top-ups awaiting confirmation,
// plus the user directory.
type AdminQueueHandler struct {
    Refunds *service.RefundService
    Wallet  *service.WalletService
    Users   *repository.UserRepo
}

func NewAdminQueueHandler(r *service.RefundService, w *service.WalletService, u *repository.UserRepo) *AdminQueueHandler {
    return &AdminQueueHandler{Refunds: r, Wallet: w, Users: u}
}

// ListRefunds handles GET /v1/admin/refunds.
func (h *AdminQueueHandler) ListRefunds(c echo.Context) error {
    list, err := h.Refunds.ListPending(c.Request().Context())
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// ApproveRefund handles POST /v1/admin/refunds/:id/approve.
func (h *AdminQueueHandler) ApproveRefund(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    req, err := h.Refunds.Approve(c.Request().Context(), id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, req)
}

// DenyRefund handles POST /v1/admin/refunds/:id/deny.
func (h *AdminQueueHandler) DenyRefund(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    req, err := h.Refunds.Deny(c.Request().Context(), id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, req)
}

// ListTopUps handles GET /v1/admin/topups.
func (h *AdminQueueHandler) ListTopUps(c echo.Context) error {
    list, err := h.Wallet.ListPendingTopUps(c.Request().Context())
    if err != nil {
        return serviceError(c, err)
    }
    out := make([]txView, 0, len(list))
    for _, wt := range list {
        out = append(out, toTxView(wt))
    }
    return c.JSON(http.StatusOK, out)
}

// ConfirmTopUp handles POST /v1/admin/topups/:id/confirm.
func (h *AdminQueueHandler) ConfirmTopUp(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    wt, err := h.Wallet.ConfirmTopUp(c.Request().Context(), id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, toTxView(wt))
}

// DenyTopUp handles DELETE /v1/admin/topups/:id.
func (h *AdminQueueHandler) DenyTopUp(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.Wallet.DenyTopUp(c.Request().Context(), id); err != nil {
        return serviceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListUsers handles GET /v1/admin/users. Password hashes never leave
// the repository layer's model; this view picks safe fields only.
func (h *AdminQueueHandler) ListUsers(c echo.Context) error {
    users, err := h.Users.List(c.Request().Context())
    if err != nil {
        return serviceError(c, err)
    }
    type adminUserView struct {
        ID           uint64 `json:"id"`
        Name         string `json:"name"`
        Email        string `json:"email"`
        Phone        string `json:"phone"`
        Role         string `json:"role"`
        WalletCents  int64  `json:"wallet_cents"`
        ReferralCode string `json:"referral_code"`
    }
    out := make([]adminUserView, 0, len(users))
    for _, u := range users {
        out = append(out, adminUserView{
            ID:           u.ID,
            Name:         u.Name,
            Email:        u.Email,
            Phone:        u.Phone,
            Role:         u.Role,
            WalletCents:  u.WalletCents,
            ReferralCode: u.ReferralCode,
        })
    }
    return c.JSON(http.StatusOK, out)
}
