// Package httpapi exposes accounts and login sessions over HTTP with gin.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"banking-ledger/internal/session"
)

type Server struct {
	svc      session.Services
	sessions *session.Registry
	log      *zap.Logger
}

func NewServer(svc session.Services, sessions *session.Registry, log *zap.Logger) *Server {
	return &Server{svc: svc, sessions: sessions, log: log.Named("http")}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/accounts", s.createAccount)
	r.GET("/accounts", s.listAccounts)

	r.POST("/sessions", s.login)
	sessions := r.Group("/sessions/:id")
	sessions.Use(s.sessionMiddleware())
	sessions.DELETE("", s.logout)
	sessions.GET("/balance", s.balance)
	sessions.POST("/credit", s.credit)
	sessions.POST("/debit", s.debit)
	sessions.POST("/transfer", s.transfer)
	sessions.GET("/transactions", s.transactions)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

const sessionKey = "session"

// sessionMiddleware resolves the :id path parameter to a logged-in session.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.sessions.Get(c.Param("id"))
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
