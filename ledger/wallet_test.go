package ledger

import (
	"errors"
	"math"
	"sync"
	"testing"

	"aroi-backend/models"

	"github.com/google/uuid"
)

func TestGetOrCreateWalletConcurrentFirstAccess(t *testing.T) {
	db := freshDB()
	wl := &WalletLedger{DB: db}
	uid := uuid.New()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = wl.GetOrCreateWallet(uid)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("access %d failed: %v", i, err)
		}
	}

	var count int64
	db.Model(&models.Wallet{}).Where("user_id = ?", uid).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly 1 wallet row, got %d", count)
	}
}

// closeTHB compares amounts at sub-cent tolerance to sidestep float64
// representation noise.
func closeTHB(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func TestTopUpCreditsWallet(t *testing.T) {
	db := freshDB()
	wl := &WalletLedger{DB: db}
	userID := uuid.New()

	txn, err := wl.TopUp(userID, 500, "ch_123", "omise")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Amount != 500 || txn.BalanceBefore != 0 || txn.BalanceAfter != 500 {
		t.Errorf("expected +500 from 0 to 500, got %+v", txn)
	}
	if txn.Type != models.WalletTxnTopUp {
		t.Errorf("expected TOPUP, got %s", txn.Type)
	}
	if txn.GatewayTxnID != "ch_123" || txn.GatewayProvider != "omise" {
		t.Errorf("gateway reference not recorded: %+v", txn)
	}
}

func TestTopUpRejectsNonPositiveAmount(t *testing.T) {
	db := freshDB()
	wl := &WalletLedger{DB: db}

	if _, err := wl.TopUp(uuid.New(), 0, "ch_1", "omise"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if _, err := wl.TopUp(uuid.New(), -100, "ch_2", "omise"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative, got %v", err)
	}
}

func TestDebitRequiresSufficientBalance(t *testing.T) {
	db := freshDB()
	wl := &WalletLedger{DB: db}
	userID := uuid.New()

	wl.TopUp(userID, 100, "ch_1", "omise")

	_, err := wl.Debit(userID, 150, nil, "order")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	wallet, _ := wl.GetOrCreateWallet(userID)
	if wallet.Balance != 100 {
		t.Errorf("failed debit must not change the balance, got %v", wallet.Balance)
	}
	var count int64
	db.Model(&models.WalletTransaction{}).Where("type = ?", models.WalletTxnPayment).Count(&count)
	if count != 0 {
		t.Errorf("failed debit must not write an audit row, found %d", count)
	}
}

func TestDebitToExactlyZero(t *testing.T) {
	db := freshDB()
	wl := &WalletLedger{DB: db}
	userID := uuid.New()

	wl.TopUp(userID, 250, "ch_1", "omise")

	txn, err := wl.Debit(userID, 250, nil, "order")
	if err != nil {
		t.Fatalf("spending the full balance should be allowed: %v", err)
	}
	if txn.BalanceAfter != 0 {
		t.Errorf("expected balance 0, got %v", txn.BalanceAfter)
	}
	if txn.Amount != -250 {
		t.Errorf("debit amount should be negative, got %v", txn.Amount)
	}
}

func TestRefundRestoresBalance(t *testing.T) {
	db := freshDB()
	wl := &WalletLedger{DB: db}
	userID := uuid.New()
	orderID := uuid.New()

	wl.TopUp(userID, 300, "ch_1", "omise")
	wl.Debit(userID, 200, &orderID, "order")

	txn, err := wl.Refund(userID, 200, &orderID, "cancelled order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Type != models.WalletTxnRefund {
		t.Errorf("expected REFUND, got %s", txn.Type)
	}
	if txn.BalanceAfter != 300 {
		t.Errorf("expected balance restored to 300, got %v", txn.BalanceAfter)
	}
	if txn.OrderID == nil || *txn.OrderID != orderID {
		t.Errorf("refund should reference the order, got %+v", txn.OrderID)
	}
}

func TestWalletLogReconstructsBalance(t *testing.T) {
	db := freshDB()
	wl := &WalletLedger{DB: db}
	userID := uuid.New()

	wl.TopUp(userID, 500, "ch_1", "omise")
	wl.Debit(userID, 123.45, nil, "order 1")
	wl.TopUp(userID, 200, "ch_2", "omise")
	wl.Debit(userID, 76.55, nil, "order 2")
	wl.Refund(userID, 50, nil, "partial refund")

	wallet, _ := wl.GetOrCreateWallet(userID)
	txns, err := wl.Transactions(wallet.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 5 {
		t.Fatalf("expected 5 transactions, got %d", len(txns))
	}

	var replayed float64
	for _, txn := range txns {
		replayed += txn.Amount
		if !closeTHB(txn.BalanceAfter-txn.BalanceBefore, txn.Amount) {
			t.Errorf("snapshot mismatch on %s: %v -> %v with amount %v",
				txn.Type, txn.BalanceBefore, txn.BalanceAfter, txn.Amount)
		}
	}
	// 500 - 123.45 + 200 - 76.55 + 50 = 550
	if !closeTHB(wallet.Balance, 550) {
		t.Errorf("expected balance 550, got %v", wallet.Balance)
	}
	if !closeTHB(replayed, 550) {
		t.Errorf("replayed balance %v does not match", replayed)
	}
}
