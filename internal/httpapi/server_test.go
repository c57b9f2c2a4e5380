package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"banking-ledger/internal/service"
	"banking-ledger/internal/session"
	"banking-ledger/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	n := 0
	settings := service.Settings{
		BcryptCost: bcrypt.MinCost,
		GenerateAccountNumber: func() string {
			n++
			return fmt.Sprintf("20000000%02d", n)
		},
	}
	store := repository.NewMemoryStore()
	log := zaptest.NewLogger(t)
	svc := session.Services{
		Accounts: service.NewAccountService(store, settings, log),
		Auth:     service.NewAuthService(store, settings, log),
		Ledger:   service.NewTransactionService(store, log),
	}
	return NewServer(svc, session.NewRegistry(svc, log), log).Router()
}

// do sends a JSON request and checks the status code. out, if non-nil, receives the
// decoded body.
func do(t *testing.T, h http.Handler, method, path string, body any, wantCode int, out any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != wantCode {
		t.Fatalf("%s %s: code=%d want=%d body=%s", method, path, rec.Code, wantCode, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
}

func signup(balance any) map[string]any {
	return map[string]any{
		"name":            "Meera Iyer",
		"dob":             "1992-08-30",
		"city":            "Mumbai",
		"password":        "Secret1!",
		"initial_balance": balance,
		"contact_number":  "9988776655",
		"email":           "meera@example.com",
		"address":         "7 Marine Drive",
	}
}

func TestHTTPFlow(t *testing.T) {
	h := newTestServer(t)

	var a1, a2 struct {
		AccountNumber string `json:"account_number"`
	}
	do(t, h, "POST", "/accounts", signup(2500), http.StatusCreated, &a1)
	do(t, h, "POST", "/accounts", signup("2000.00"), http.StatusCreated, &a2)

	var list []accountResponse
	do(t, h, "GET", "/accounts", nil, http.StatusOK, &list)
	if len(list) != 2 || list[0].Balance != "2500.00" || list[0].DOB != "1992-08-30" {
		t.Fatalf("unexpected list: %+v", list)
	}

	var login struct {
		SessionID string `json:"session_id"`
	}
	do(t, h, "POST", "/sessions", map[string]string{"account_number": a1.AccountNumber, "password": "Secret1!"}, http.StatusCreated, &login)
	base := "/sessions/" + login.SessionID

	var bal struct {
		Balance string `json:"balance"`
	}
	do(t, h, "POST", base+"/credit", map[string]any{"amount": 500}, http.StatusOK, &bal)
	if bal.Balance != "3000.00" {
		t.Fatalf("after credit balance=%s", bal.Balance)
	}
	do(t, h, "POST", base+"/debit", map[string]any{"amount": "1000"}, http.StatusOK, &bal)
	do(t, h, "POST", base+"/debit", map[string]any{"amount": 99999}, http.StatusConflict, nil)
	do(t, h, "POST", base+"/transfer", map[string]any{"to": a2.AccountNumber, "amount": "250.50"}, http.StatusOK, &bal)
	if bal.Balance != "1749.50" {
		t.Fatalf("after transfer balance=%s", bal.Balance)
	}
	do(t, h, "GET", base+"/balance", nil, http.StatusOK, &bal)

	var txs []transactionResponse
	do(t, h, "GET", base+"/transactions", nil, http.StatusOK, &txs)
	if len(txs) != 3 || txs[2].Kind != "transfer" || txs[2].Counterparty != a2.AccountNumber || txs[2].Amount != "250.50" {
		t.Fatalf("unexpected history: %+v", txs)
	}

	do(t, h, "DELETE", base, nil, http.StatusNoContent, nil)
	do(t, h, "GET", base+"/balance", nil, http.StatusNotFound, nil)
}

func TestHTTPErrors(t *testing.T) {
	h := newTestServer(t)
	var acc struct {
		AccountNumber string `json:"account_number"`
	}
	do(t, h, "POST", "/accounts", signup(3000), http.StatusCreated, &acc)

	do(t, h, "POST", "/accounts", signup(1999), http.StatusBadRequest, nil)
	bad := signup(2500)
	bad["email"] = "x@y"
	do(t, h, "POST", "/accounts", bad, http.StatusBadRequest, nil)
	bad = signup(2500)
	bad["dob"] = "30-08-1992"
	do(t, h, "POST", "/accounts", bad, http.StatusBadRequest, nil)

	creds := map[string]string{"account_number": acc.AccountNumber, "password": "Secret1!"}
	do(t, h, "POST", "/sessions", map[string]string{"account_number": acc.AccountNumber, "password": "Secret2!"}, http.StatusUnauthorized, nil)
	do(t, h, "POST", "/sessions", map[string]string{"account_number": "9999999999", "password": "Secret1!"}, http.StatusUnauthorized, nil)
	do(t, h, "POST", "/sessions", map[string]string{}, http.StatusBadRequest, nil)

	var login struct {
		SessionID string `json:"session_id"`
	}
	do(t, h, "POST", "/sessions", creds, http.StatusCreated, &login)
	do(t, h, "POST", "/sessions", creds, http.StatusConflict, nil)

	base := "/sessions/" + login.SessionID
	do(t, h, "POST", base+"/credit", map[string]any{"amount": "-5"}, http.StatusBadRequest, nil)
	do(t, h, "POST", base+"/credit", map[string]any{"amount": "1.001"}, http.StatusBadRequest, nil)
	do(t, h, "POST", base+"/credit", map[string]any{}, http.StatusBadRequest, nil)
	do(t, h, "POST", base+"/transfer", map[string]any{"to": "9999999999", "amount": 10}, http.StatusNotFound, nil)
	do(t, h, "POST", base+"/transfer", map[string]any{"to": acc.AccountNumber, "amount": 10}, http.StatusBadRequest, nil)
	do(t, h, "GET", "/sessions/nope/balance", nil, http.StatusNotFound, nil)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&service.FieldError{Field: "email", Message: "bad"}, http.StatusBadRequest},
		{fmt.Errorf("Credit: %w", service.ErrInvalidAmount), http.StatusBadRequest},
		{service.ErrAuthenticationFailed, http.StatusUnauthorized},
		{fmt.Errorf("Get: %w", session.ErrUnknownSession), http.StatusNotFound},
		{service.ErrAccountInactive, http.StatusConflict},
		{session.ErrSessionActive, http.StatusConflict},
		{fmt.Errorf("Debit: %w: %w", service.ErrStorageFailure, errors.New("conn reset")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
