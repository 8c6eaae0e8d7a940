// Package server exposes the service over HTTP: transaction creation and
// ledger queries, limit redefinition and listings, and exchange-rate
// lookup/refresh. Handlers translate between JSON and the domain services;
// no business rules live here.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bank-limits/internal/limits"
	"bank-limits/internal/rates"
	"bank-limits/internal/transactions"
)

// Server holds the handlers' dependencies.
type Server struct {
	limits       *limits.Registry
	transactions *transactions.Service
	rates        *rates.Service
	log          zerolog.Logger
}

// New builds a Server over the domain services.
func New(l *limits.Registry, t *transactions.Service, r *rates.Service, log zerolog.Logger) *Server {
	return &Server{limits: l, transactions: t, rates: r, log: log}
}

// Router assembles the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(Recovery(s.log), Logger(s.log), RequestID())

	bank := r.Group("/bank")
	{
		bank.POST("/transactions", s.createTransaction)
		bank.GET("/transactions", s.listTransactions)
		bank.GET("/transactions/account/:id", s.transactionsByAccount)
		bank.GET("/transactions/exceeded/:accountId", s.exceededTransactions)
		bank.GET("/transactions/byCategory", s.transactionsByCategory)

		bank.POST("/limits", s.defineLimit)
		bank.GET("/limits", s.listLimits)
		bank.GET("/limits/account", s.limitsByAccount)

		bank.GET("/rates", s.getRate)
		bank.POST("/rates/refresh", s.refreshRate)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Format(time.RFC3339)})
	})

	return r
}
