package service

import (
    "context"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/uniscape-booking/internal/model"
    "github.com/iliyamo/uniscape-booking/internal/queue"
    "github.com/iliyamo/uniscape-booking/internal/repository"
)

const (
    qLedgerForUpdate = "SELECT id, user_id, amount_cents, type, status, details, reference, COALESCE(idempotency_key,''), created_at FROM wallet_transactions WHERE id=? FOR UPDATE"
    qCompleteLedger  = "UPDATE wallet_transactions SET status=? WHERE id=? AND status=?"
    qDeletePending   = "DELETE FROM wallet_transactions WHERE id=? AND status=?"
)

func newWalletService(t *testing.T) (*WalletService, sqlmock.Sqlmock, *recordingNotifier) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    rec := newRecordingNotifier()
    svc := &WalletService{
        DB:       db,
        Users:    repository.NewUserRepo(db),
        Ledger:   repository.NewLedgerRepo(db),
        Notifier: rec,
    }
    return svc, mock, rec
}

func ledgerRow(id, userID uint64, amount int64, txType, status string) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "user_id", "amount_cents", "type", "status", "details",
        "reference", "idempotency_key", "created_at",
    }).AddRow(id, userID, amount, txType, status, "Top-Up (CASH)", "ref-1", "", testNow)
}

func TestInitiateTopUpCreatesPendingCredit(t *testing.T) {
    svc, mock, _ := newWalletService(t)

    mock.ExpectExec(quoted(qInsertLedger)).
        WithArgs(uint64(1), int64(5000), "CREDIT", "PENDING", "Top-Up (CASH)", sqlmock.AnyArg(), nil).
        WillReturnResult(sqlmock.NewResult(11, 1))

    wt, err := svc.InitiateTopUp(context.Background(), 1, 5000, TopUpCash)
    require.NoError(t, err)
    assert.Equal(t, uint64(11), wt.ID)
    assert.Equal(t, model.TxPending, wt.Status)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitiateTopUpRejectsBadInput(t *testing.T) {
    svc, _, _ := newWalletService(t)

    _, err := svc.InitiateTopUp(context.Background(), 1, 0, TopUpCash)
    assert.ErrorIs(t, err, repository.ErrInvalidState)

    _, err = svc.InitiateTopUp(context.Background(), 1, 5000, "CARD")
    assert.ErrorIs(t, err, repository.ErrInvalidState)
}

func TestConfirmTopUpCreditsWalletOnce(t *testing.T) {
    svc, mock, rec := newWalletService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qLedgerForUpdate)).WithArgs(uint64(11)).
        WillReturnRows(ledgerRow(11, 1, 5000, "CREDIT", "PENDING"))
    mock.ExpectExec(quoted(qCompleteLedger)).WithArgs("COMPLETED", uint64(11), "PENDING").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(quoted(qAdjustWallet)).WithArgs(int64(5000), uint64(1), int64(5000)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()
    mock.ExpectQuery(quoted(qUserByID)).WithArgs(uint64(1)).WillReturnRows(userRow(1))

    wt, err := svc.ConfirmTopUp(context.Background(), 11)
    require.NoError(t, err)
    assert.Equal(t, model.TxCompleted, wt.Status)

    n := rec.wait(t)
    assert.Equal(t, queue.KindTopUpConfirmed, n.Kind)
    assert.Equal(t, int64(5000), n.AmountCents)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmTopUpRejectsCompletedEntry(t *testing.T) {
    svc, mock, _ := newWalletService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qLedgerForUpdate)).WithArgs(uint64(11)).
        WillReturnRows(ledgerRow(11, 1, 5000, "CREDIT", "COMPLETED"))
    mock.ExpectRollback()

    _, err := svc.ConfirmTopUp(context.Background(), 11)
    assert.ErrorIs(t, err, repository.ErrInvalidState)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmTopUpRejectsDebitEntry(t *testing.T) {
    svc, mock, _ := newWalletService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(quoted(qLedgerForUpdate)).WithArgs(uint64(12)).
        WillReturnRows(ledgerRow(12, 1, 5000, "DEBIT", "COMPLETED"))
    mock.ExpectRollback()

    _, err := svc.ConfirmTopUp(context.Background(), 12)
    assert.ErrorIs(t, err, repository.ErrInvalidState)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDenyTopUpOnlyDeletesPending(t *testing.T) {
    svc, mock, _ := newWalletService(t)

    mock.ExpectExec(quoted(qDeletePending)).WithArgs(uint64(11), "PENDING").
        WillReturnResult(sqlmock.NewResult(0, 1))
    require.NoError(t, svc.DenyTopUp(context.Background(), 11))

    // A completed entry matches no rows and must be reported, not
    // silently ignored.
    mock.ExpectExec(quoted(qDeletePending)).WithArgs(uint64(11), "PENDING").
        WillReturnResult(sqlmock.NewResult(0, 0))
    assert.ErrorIs(t, svc.DenyTopUp(context.Background(), 11), repository.ErrInvalidState)

    assert.NoError(t, mock.ExpectationsWereMet())
}
