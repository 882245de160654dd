package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) extractEmails(c *gin.Context) {
	var body struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results, err := s.extractor.ExtractEmails(c.Request.Context(), body.StartDate, body.EndDate)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) processQueue(c *gin.Context) {
	var body struct {
		Emails []json.RawMessage `json:"emails"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.extractor.ProcessQueue(c.Request.Context(), body.Emails)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
