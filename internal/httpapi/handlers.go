package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"banking-ledger/internal/service"
	"banking-ledger/internal/validation"
	"banking-ledger/models"
)

type createAccountRequest struct {
	Name           string          `json:"name"`
	DOB            string          `json:"dob"`
	City           string          `json:"city"`
	Password       string          `json:"password"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	ContactNumber  string          `json:"contact_number"`
	Email          string          `json:"email"`
	Address        string          `json:"address"`
}

type accountResponse struct {
	AccountNumber string `json:"account_number"`
	Name          string `json:"name"`
	DOB           string `json:"dob"`
	City          string `json:"city"`
	Balance       string `json:"balance"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Status        string `json:"status"`
}

func newAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		AccountNumber: a.AccountNumber,
		Name:          a.Name,
		DOB:           a.DOB.Format(time.DateOnly),
		City:          a.City,
		Balance:       a.Balance.StringFixed(2),
		ContactNumber: a.ContactNumber,
		Email:         a.Email,
		Address:       a.Address,
		Status:        string(a.Status),
	}
}

type loginRequest struct {
	AccountNumber string `json:"account_number" binding:"required"`
	Password      string `json:"password" binding:"required"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	To     string          `json:"to" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type transactionResponse struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	Amount       string `json:"amount"`
	Counterparty string `json:"counterparty,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dob, ok := validation.ParseDOB(req.DOB, time.Now())
	if !ok {
		s.writeError(c, &service.FieldError{Field: "date of birth", Message: "must be a past date in YYYY-MM-DD form"})
		return
	}
	profile := models.Profile{
		Name:          req.Name,
		DOB:           dob,
		City:          req.City,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
		Address:       req.Address,
	}
	number, err := s.svc.Accounts.CreateAccount(c.Request.Context(), profile, req.Password, req.InitialBalance)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account_number": number})
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.svc.Accounts.ListAccounts(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := s.sessions.Login(c.Request.Context(), req.AccountNumber, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID(), "account_number": req.AccountNumber})
}

func (s *Server) logout(c *gin.Context) {
	if err := s.sessions.Logout(c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) balance(c *gin.Context) {
	sess := sessionFrom(c)
	b, err := sess.Balance(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	account, _ := sess.Account()
	c.JSON(http.StatusOK, gin.H{"account_number": account, "balance": b.StringFixed(2)})
}

func (s *Server) credit(c *gin.Context) {
	s.mutate(c, sessionFrom(c).Credit)
}

func (s *Server) debit(c *gin.Context) {
	s.mutate(c, sessionFrom(c).Debit)
}

// mutate runs a credit or debit against the session's account.
func (s *Server) mutate(c *gin.Context, op func(context.Context, decimal.Decimal) (decimal.Decimal, error)) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := op(c.Request.Context(), req.Amount)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": b.StringFixed(2)})
}

func (s *Server) transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := sessionFrom(c)
	if err := sess.Transfer(c.Request.Context(), req.To, req.Amount); err != nil {
		s.writeError(c, err)
		return
	}
	b, err := sess.Balance(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transfer completed", "balance": b.StringFixed(2)})
}

func (s *Server) transactions(c *gin.Context) {
	txs, err := sessionFrom(c).History(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:           tx.ID,
			Kind:         string(tx.Kind),
			Amount:       tx.Amount.StringFixed(2),
			Counterparty: tx.Counterparty,
			CreatedAt:    tx.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	c.JSON(http.StatusOK, out)
}
