package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ibra/centime/internal/database/repository"
	"github.com/ibra/centime/internal/service"
)

func (s *Server) listTransactions(c *gin.Context) {
	f := repository.TransactionFilters{
		Category:  c.Query("category"),
		Tag:       c.Query("tag"),
		Search:    c.Query("search"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
	out, err := s.transactions.List(c.Request.Context(), f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type transactionResponse struct {
	repository.Transaction
	AppliedRules []service.RuleApplication `json:"applied_rules"`
}

func (s *Server) createTransaction(c *gin.Context) {
	var p service.IngestPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, applied, err := s.ingest.Ingest(c.Request.Context(), p)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if applied == nil {
		applied = []service.RuleApplication{}
	}
	c.JSON(http.StatusCreated, transactionResponse{Transaction: *t, AppliedRules: applied})
}

func (s *Server) getTransaction(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	t, err := s.transactions.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.transactions.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

func (s *Server) transactionsByCategory(c *gin.Context) {
	out, err := s.transactions.List(c.Request.Context(), repository.TransactionFilters{Category: c.Param("category")})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) transactionsByTag(c *gin.Context) {
	out, err := s.transactions.List(c.Request.Context(), repository.TransactionFilters{Tag: c.Param("tag")})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) updateTransactionCategory(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var body struct {
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.transactions.UpdateCategory(c.Request.Context(), id, body.Category); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated"})
}

func (s *Server) updateTransactionAmount(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var body struct {
		Amount *float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.transactions.UpdateAmount(c.Request.Context(), id, body.Amount); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Amount updated"})
}

func (s *Server) updateTransactionDescription(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var body struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.transactions.UpdateDescription(c.Request.Context(), id, body.Description); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Description updated"})
}

func (s *Server) transactionTags(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	tags, err := s.transactions.TagsFor(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if tags == nil {
		tags = []repository.Tag{}
	}
	c.JSON(http.StatusOK, tags)
}

func (s *Server) addTransactionTag(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var body struct {
		Tag string `json:"tag"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.transactions.AddTag(c.Request.Context(), id, body.Tag); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Tag added"})
}

func (s *Server) removeTransactionTag(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var body struct {
		Tag string `json:"tag"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.transactions.RemoveTag(c.Request.Context(), id, body.Tag); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag removed"})
}

func (s *Server) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return 0, false
	}
	return id, true
}
