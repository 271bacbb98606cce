package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uniscape-booking/internal/model"
    "github.com/iliyamo/uniscape-booking/internal/service"
)

// WalletHandler exposes the student wallet: balance, history and the
// initiation half of the top-up flow. Confirmation is an admin action
// and lives on AdminQueueHandler.
type WalletHandler struct {
    Wallet *service.WalletService
}

func NewWalletHandler(w *service.WalletService) *WalletHandler {
    return &WalletHandler{Wallet: w}
}

type topUpReq struct {
    AmountCents int64  `json:"amount_cents"`
    Method      string `json:"method"` // CASH | QR
}

type txView struct {
    ID          uint64 `json:"id"`
    AmountCents int64  `json:"amount_cents"`
    Type        string `json:"type"`
    Status      string `json:"status"`
    Details     string `json:"details"`
    Reference   string `json:"reference"`
    CreatedAt   string `json:"created_at"`
}

func toTxView(wt model.WalletTransaction) txView {
    return txView{
        ID:          wt.ID,
        AmountCents: wt.AmountCents,
        Type:        wt.Type,
        Status:      wt.Status,
        Details:     wt.Details,
        Reference:   wt.Reference,
        CreatedAt:   wt.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
    }
}

// Balance handles GET /v1/wallet.
func (h *WalletHandler) Balance(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    cents, err := h.Wallet.Balance(c.Request().Context(), uid)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"balance_cents": cents})
}

// History handles GET /v1/wallet/history.
func (h *WalletHandler) History(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    list, err := h.Wallet.History(c.Request().Context(), uid)
    if err != nil {
        return serviceError(c, err)
    }
    out := make([]txView, 0, len(list))
    for _, wt := range list {
        out = append(out, toTxView(wt))
    }
    return c.JSON(http.StatusOK, out)
}

// InitiateTopUp handles POST /v1/wallet/topups. The credit stays
// PENDING until an admin confirms the money arrived.
func (h *WalletHandler) InitiateTopUp(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req topUpReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Method = strings.ToUpper(strings.TrimSpace(req.Method))
    if req.AmountCents <= 0 || (req.Method != service.TopUpCash && req.Method != service.TopUpQR) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents and method (CASH|QR) required"})
    }
    wt, err := h.Wallet.InitiateTopUp(c.Request().Context(), uid, req.AmountCents, req.Method)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, toTxView(wt))
}

// TopUpStatus handles GET /v1/wallet/topups/:id.
func (h *WalletHandler) TopUpStatus(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    wt, err := h.Wallet.TopUpStatus(c.Request().Context(), uid, id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, toTxView(wt))
}
