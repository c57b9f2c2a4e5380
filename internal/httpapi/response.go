package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"banking-ledger/internal/service"
	"banking-ledger/internal/session"
)

// statusFor maps a service or session error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInsufficientInitialDeposit),
		errors.Is(err, service.ErrSameAccountTransfer):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, session.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, session.ErrSessionActive),
		errors.Is(err, session.ErrNotLoggedIn):
		return http.StatusConflict
	case errors.Is(err, service.ErrAccountNumberExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends {"error": message}. Server-side failures are logged and their
// details are not sent to the client.
func (s *Server) writeError(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(code, gin.H{"error": http.StatusText(code)})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
