package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/uniscape-booking/internal/repository"
)

func TestServiceErrorStatusMapping(t *testing.T) {
    cases := []struct {
        err  error
        want int
    }{
        {repository.ErrItemNotFound, http.StatusNotFound},
        {repository.ErrBookingNotFound, http.StatusNotFound},
        {repository.ErrRefundNotFound, http.StatusNotFound},
        {repository.ErrTxNotFound, http.StatusNotFound},
        {sql.ErrNoRows, http.StatusNotFound},
        {repository.ErrForbidden, http.StatusForbidden},
        {repository.ErrAlreadyBooked, http.StatusConflict},
        {repository.ErrAlreadyCancelled, http.StatusConflict},
        {repository.ErrDuplicateRequest, http.StatusConflict},
        {repository.ErrInvalidState, http.StatusConflict},
        {repository.ErrCapacityExceeded, http.StatusConflict},
        {repository.ErrNotOpen, http.StatusConflict},
        {repository.ErrInsufficientFunds, http.StatusPaymentRequired},
        {errors.New("boom"), http.StatusInternalServerError},
    }

    e := echo.New()
    for _, tc := range cases {
        req := httptest.NewRequest(http.MethodGet, "/", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        assert.NoError(t, serviceError(c, tc.err))
        assert.Equal(t, tc.want, rec.Code, "error %v", tc.err)
    }
}

func TestGetUserIDAcceptsJWTClaimTypes(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    c := e.NewContext(req, httptest.NewRecorder())

    // JWT numeric claims arrive as float64.
    c.Set("user_id", float64(42))
    id, err := getUserID(c)
    assert.NoError(t, err)
    assert.Equal(t, uint64(42), id)

    c.Set("user_id", "17")
    id, err = getUserID(c)
    assert.NoError(t, err)
    assert.Equal(t, uint64(17), id)

    c.Set("user_id", nil)
    _, err = getUserID(c)
    assert.Error(t, err)
}
