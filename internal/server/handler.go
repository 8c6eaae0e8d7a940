package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bank-limits/internal/models"
	"bank-limits/internal/transactions"
)

type transactionRequest struct {
	FromAccount     int64           `json:"fromAccount"`
	ToAccount       int64           `json:"toAccount"`
	Currency        string          `json:"currency"`
	ExpenseCategory string          `json:"expenseCategory"`
	Sum             decimal.Decimal `json:"sum"`
	TransactionTime *time.Time      `json:"transactionTime,omitempty"`
}

type limitRequest struct {
	AccountID       int64           `json:"accountId"`
	ExpenseCategory string          `json:"expenseCategory"`
	Limit           decimal.Decimal `json:"limit"`
}

func (s *Server) createTransaction(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	create := transactions.CreateRequest{
		AccountFrom: req.FromAccount,
		AccountTo:   req.ToAccount,
		Currency:    models.Currency(req.Currency),
		Category:    models.Category(req.ExpenseCategory),
		Sum:         req.Sum,
	}
	if req.TransactionTime != nil {
		create.TransactionTime = *req.TransactionTime
	}

	t, err := s.transactions.Create(c.Request.Context(), create)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/bank/transactions/%d", t.ID))
	c.JSON(http.StatusCreated, t)
}

func (s *Server) listTransactions(c *gin.Context) {
	ts, err := s.transactions.All(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (s *Server) transactionsByAccount(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ts []*models.Transaction
	if c.Query("exceededOnly") == "true" {
		ts, err = s.transactions.ExceededByAccount(c.Request.Context(), id)
	} else {
		ts, err = s.transactions.ByAccount(c.Request.Context(), id)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (s *Server) exceededTransactions(c *gin.Context) {
	id, err := parseID(c.Param("accountId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ts, err := s.transactions.ExceededByAccount(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (s *Server) transactionsByCategory(c *gin.Context) {
	category, err := models.ParseCategory(c.Query("category"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	ts, err := s.transactions.ByCategory(c.Request.Context(), category)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (s *Server) defineLimit(c *gin.Context) {
	var req limitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	category, err := models.ParseCategory(req.ExpenseCategory)
	if err != nil {
		s.writeError(c, err)
		return
	}

	limit, err := s.limits.Define(c.Request.Context(), req.AccountID, category, req.Limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/bank/limits/%d", limit.ID))
	c.JSON(http.StatusCreated, limit)
}

func (s *Server) listLimits(c *gin.Context) {
	ls, err := s.limits.ListAll(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ls)
}

func (s *Server) limitsByAccount(c *gin.Context) {
	id, err := parseID(c.Query("accountId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ls, err := s.limits.ListByAccount(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ls)
}

func (s *Server) getRate(c *gin.Context) {
	from, err := models.ParseCurrency(c.Query("from"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	to, err := models.ParseCurrency(c.Query("to"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		date, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as YYYY-MM-DD"})
			return
		}
		if models.DateOf(date).After(models.DateOf(time.Now())) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must not be in the future"})
			return
		}
	}

	rate, err := s.rates.Get(c.Request.Context(), from, to, date)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

func (s *Server) refreshRate(c *gin.Context) {
	from, err := models.ParseCurrency(c.Query("from"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	to, err := models.ParseCurrency(c.Query("to"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if from == to {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currencies must differ"})
		return
	}

	rate, err := s.rates.RefreshPair(c.Request.Context(), from, to)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("account id must be a positive integer")
	}
	return id, nil
}
