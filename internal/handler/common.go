package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uniscape-booking/internal/repository"
)

// getUserID pulls the authenticated user's ID out of the Echo context,
// where the JWT middleware stored it. JWT numeric claims decode as
// float64, so several representations are tolerated.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id route parameter as a positive integer.
func pathID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}

// serviceError maps repository sentinels onto HTTP responses so every
// handler reports the same status for the same failure. Unknown errors
// become opaque 500s.
func serviceError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrItemNotFound),
        errors.Is(err, repository.ErrBookingNotFound),
        errors.Is(err, repository.ErrRefundNotFound),
        errors.Is(err, repository.ErrTxNotFound),
        errors.Is(err, repository.ErrUserNotFound),
        errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrAlreadyBooked):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already booked"})
    case errors.Is(err, repository.ErrAlreadyCancelled):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already cancelled"})
    case errors.Is(err, repository.ErrDuplicateRequest):
        return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate request"})
    case errors.Is(err, repository.ErrInvalidState):
        return c.JSON(http.StatusConflict, echo.Map{"error": "invalid state"})
    case errors.Is(err, repository.ErrCapacityExceeded):
        return c.JSON(http.StatusConflict, echo.Map{"error": "fully booked"})
    case errors.Is(err, repository.ErrNotOpen):
        return c.JSON(http.StatusConflict, echo.Map{"error": "not open for booking"})
    case errors.Is(err, repository.ErrInsufficientFunds):
        return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "insufficient funds"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
