package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ibra/centime/internal/database/repository"
)

func (s *Server) dashboardStats(c *gin.Context) {
	stats, err := s.transactions.Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) monthlySpending(c *gin.Context) {
	out, err := s.transactions.MonthlySpending(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if out == nil {
		out = []repository.MonthlyTotal{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) categoryBreakdown(c *gin.Context) {
	out, err := s.transactions.CategoryBreakdown(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if out == nil {
		out = []repository.CategoryStat{}
	}
	c.JSON(http.StatusOK, out)
}
