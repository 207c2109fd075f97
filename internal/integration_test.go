package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"netbank/internal/api"
	"netbank/internal/domain"
	"netbank/internal/engine"
	"netbank/internal/repository/memory"
	"netbank/internal/service"
	"netbank/pkg/crypto"
	"netbank/pkg/metrics"
)

type testEnv struct {
	accounts *memory.AccountStore
	payees   *memory.PayeeDirectory
	ledger   *memory.Ledger

	engine *engine.Engine
	sender *service.MockEmailSender
	signer *crypto.Signer
	mux    *http.ServeMux
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	accounts := memory.NewAccountStore()
	payees := memory.NewPayeeDirectory()
	ledger := memory.NewLedger()

	eng := engine.NewEngine(accounts, ledger, nil)
	sender := &service.MockEmailSender{}
	statements := service.NewStatementService(sender, 2, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = statements.Shutdown(ctx)
	})

	collector := metrics.NewMetricsCollector(nil)
	signer := crypto.NewSigner("test-secret", nil)
	logger := slog.Default()

	handler := api.NewAPIHandler(eng, accounts, payees, ledger, statements, collector, signer, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &testEnv{
		accounts: accounts,
		payees:   payees,
		ledger:   ledger,
		engine:   eng,
		sender:   sender,
		signer:   signer,
		mux:      mux,
	}
}

func mustCreateAccount(t *testing.T, env *testEnv, accno int64, accType domain.AccountType, balance int64) {
	t.Helper()
	acc := &domain.Account{
		AccountNumber: accno,
		AccountType:   accType,
		Balance:       decimal.NewFromInt(balance),
		CustomerID:    "CUST001",
	}
	if err := env.accounts.Save(context.Background(), acc); err != nil {
		t.Fatalf("save account failed: %v", err)
	}
}

func doJSON(t *testing.T, env *testEnv, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)
	return w
}

func TestIntegration_TransferSuccess(t *testing.T) {
	env := setup(t)
	mustCreateAccount(t, env, 1001, domain.AccountSavings, 50000)
	mustCreateAccount(t, env, 1002, domain.AccountCurrent, 120000)

	w := doJSON(t, env, "POST", "/api/v1/transfers", map[string]any{
		"source_account":      1001,
		"destination_account": 1002,
		"amount":              2500,
		"description":         "Rent",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.TransferResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.SourceBalance != "47500" || resp.DestinationBalance != "122500" || !resp.DestinationKnown {
		t.Errorf("unexpected transfer response: %+v", resp)
	}
	if len(resp.Records) != 2 {
		t.Errorf("expected 2 records in response, got %d", len(resp.Records))
	}

	acc, _ := env.accounts.Get(context.Background(), 1001)
	if !acc.Balance.Equal(decimal.NewFromInt(47500)) {
		t.Errorf("expected source balance 47500, got %s", acc.Balance)
	}
}

func TestIntegration_TransferNumericAndStringAmounts(t *testing.T) {
	env := setup(t)
	mustCreateAccount(t, env, 1001, domain.AccountSavings, 50000)
	mustCreateAccount(t, env, 1002, domain.AccountCurrent, 0)

	// Amounts arrive from the client either as JSON numbers or strings.
	for _, amount := range []any{100, "200.50"} {
		w := doJSON(t, env, "POST", "/api/v1/transfers", map[string]any{
			"source_account":      1001,
			"destination_account": 1002,
			"amount":              amount,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("amount %v: expected 201, got %d: %s", amount, w.Code, w.Body.String())
		}
	}

	acc, _ := env.accounts.Get(context.Background(), 1002)
	if !acc.Balance.Equal(decimal.RequireFromString("300.5")) {
		t.Errorf("expected destination balance 300.5, got %s", acc.Balance)
	}
}

func TestIntegration_TransferInsufficientFunds(t *testing.T) {
	env := setup(t)
	mustCreateAccount(t, env, 1001, domain.AccountSavings, 50000)
	mustCreateAccount(t, env, 1002, domain.AccountCurrent, 0)

	w := doJSON(t, env, "POST", "/api/v1/transfers", map[string]any{
		"source_account":      1001,
		"destination_account": 1002,
		"amount":              999999,
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	acc, _ := env.accounts.Get(context.Background(), 1001)
	if !acc.Balance.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("balance must stay 50000, got %s", acc.Balance)
	}
	if n, _ := env.ledger.Len(context.Background()); n != 0 {
		t.Errorf("ledger must stay empty, got %d records", n)
	}
}

func TestIntegration_TransferSelf(t *testing.T) {
	env := setup(t)
	mustCreateAccount(t, env, 1001, domain.AccountSavings, 50000)

	w := doJSON(t, env, "POST", "/api/v1/transfers", map[string]any{
		"source_account":      1001,
		"destination_account": 1001,
		"amount":              100,
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestIntegration_TransferUnknownSource(t *testing.T) {
	env := setup(t)
	mustCreateAccount(t, env, 1002, domain.AccountCurrent, 0)

	w := doJSON(t, env, "POST", "/api/v1/transfers", map[string]any{
		"source_account":      7777,
		"destination_account": 1002,
		"amount":              100,
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestIntegration_TransferViaPayee(t *testing.T) {
	env := setup(t)
	mustCreateAccount(t, env, 1001, domain.AccountSavings, 50000)

	w := doJSON(t, env, "POST", "/api/v1/payees", map[string]any{
		"name":           "Landlord",
		"bank_name":      "HDFC Bank",
		"ifsc_code":      "HDFC0001234",
		"account_number": 9999,
		"customer_id":    "CUST001",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating payee, got %d: %s", w.Code, w.Body.String())
	}
	var payee domain.Payee
	if err := json.NewDecoder(w.Body).Decode(&payee); err != nil {
		t.Fatalf("decode payee failed: %v", err)
	}

	w = doJSON(t, env, "POST", "/api/v1/transfers", map[string]any{
		"source_account": 1001,
		"payee_id":       payee.PayeeID,
		"amount":         1000,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.TransferResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.DestinationKnown {
		t.Errorf("payee destination 9999 must be reported as unknown")
	}
	if resp.SourceBalance != "49000" {
		t.Errorf("expected source balance 49000, got %s", resp.SourceBalance)
	}

	snap, _ := env.ledger.Snapshot(context.Background())
	if len(snap) != 2 || snap[0].Description != domain.ExternalDescription {
		t.Errorf("expected external credit at the ledger head, got %+v", snap)
	}
}

func TestIntegration_SignedTransfer(t *testing.T) {
	env := setup(t)
	mustCreateAccount(t, env, 1001, domain.AccountSavings, 50000)
	mustCreateAccount(t, env, 1002, domain.AccountCurrent, 0)

	ts := time.Now().Unix()
	sig := env.signer.SignTransfer(1001, 1002, "500", ts)

	w := doJSON(t, env, "POST", "/api/v1/transfers", map[string]any{
		"source_account":      1001,
		"destination_account": 1002,
		"amount":              "500",
		"timestamp":           ts,
		"signature":           sig,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for valid signature, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, env, "POST", "/api/v1/transfers", map[string]any{
		"source_account":      1001,
		"destination_account": 1002,
		"amount":              "500",
		"timestamp":           ts,
		"signature":           "deadbeef",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad signature, got %d", w.Code)
	}
}

func TestIntegration_QueryTransactions(t *testing.T) {
	env := setup(t)
	mustCreateAccount(t, env, 1001, domain.AccountSavings, 50000)
	mustCreateAccount(t, env, 1002, domain.AccountCurrent, 0)

	_, _ = env.engine.ExecuteTransfer(context.Background(), engine.TransferRequest{
		SourceAccount: 1001, DestinationAccount: 1002, Amount: "100",
	})
	_, _ = env.engine.ExecuteTransfer(context.Background(), engine.TransferRequest{
		SourceAccount: 1001, DestinationAccount: 9999, Amount: "50",
	})

	w := doJSON(t, env, "GET", "/api/v1/transactions?kind=DEBIT", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Transactions []domain.TransactionRecord `json:"transactions"`
		Count        int                        `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected 2 debit records, got %d", resp.Count)
	}
	for _, r := range resp.Transactions {
		if r.Kind != domain.KindDebit {
			t.Errorf("kind filter DEBIT returned %s", r.Kind)
		}
	}
}

func TestIntegration_QueryInvalidRange(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env, "GET", "/api/v1/transactions?from=2025-07-20&to=2025-07-10", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
}

func TestIntegration_CreateAccountDuplicate(t *testing.T) {
	env := setup(t)

	body := map[string]any{"account_number": 1001, "account_type": "Savings", "customer_id": "CUST001"}
	if w := doJSON(t, env, "POST", "/api/v1/accounts", body); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w := doJSON(t, env, "POST", "/api/v1/accounts", body); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", w.Code)
	}

	acc, _ := env.accounts.Get(context.Background(), 1001)
	if !acc.Balance.IsZero() {
		t.Errorf("new accounts must open at zero, got %s", acc.Balance)
	}
}

func TestIntegration_EmailStatement(t *testing.T) {
	env := setup(t)
	mustCreateAccount(t, env, 1001, domain.AccountSavings, 50000)
	mustCreateAccount(t, env, 1002, domain.AccountCurrent, 0)

	_, _ = env.engine.ExecuteTransfer(context.Background(), engine.TransferRequest{
		SourceAccount: 1001, DestinationAccount: 1002, Amount: "2500", Description: "Rent",
	})

	w := doJSON(t, env, "POST", "/api/v1/statements/email", map[string]any{
		"email":          "user@example.com",
		"account_number": 1001,
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(env.sender.Sent()) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	sent := env.sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 statement email, got %d", len(sent))
	}
	if sent[0].To != "user@example.com" {
		t.Errorf("unexpected recipient %q", sent[0].To)
	}
}

func TestIntegration_PayeeLifecycle(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env, "POST", "/api/v1/payees", map[string]any{
		"name":           "Electric Board",
		"bank_name":      "SBI",
		"ifsc_code":      "SBIN0004321",
		"account_number": 4321,
		"customer_id":    "CUST001",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var payee domain.Payee
	_ = json.NewDecoder(w.Body).Decode(&payee)

	w = doJSON(t, env, "PUT", fmt.Sprintf("/api/v1/payees/%s", payee.PayeeID), map[string]any{
		"name":           "Electric Board",
		"bank_name":      "SBI",
		"ifsc_code":      "SBIN0004321",
		"account_number": 5555,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 updating payee, got %d: %s", w.Code, w.Body.String())
	}

	accno, err := env.payees.Resolve(context.Background(), payee.PayeeID)
	if err != nil || accno != 5555 {
		t.Fatalf("expected payee to resolve to 5555, got %d (err=%v)", accno, err)
	}

	w = doJSON(t, env, "DELETE", fmt.Sprintf("/api/v1/payees/%s", payee.PayeeID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting payee, got %d", w.Code)
	}
}
