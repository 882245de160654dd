package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ibra/centime/internal/database/repository"
)

type ruleBody struct {
	Keyword  string    `json:"keyword"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

func (s *Server) listRules(c *gin.Context) {
	rules, err := s.rules.ListRules(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if rules == nil {
		rules = []repository.KeywordRule{}
	}
	for i := range rules {
		if rules[i].Tags == nil {
			rules[i].Tags = []string{}
		}
	}
	c.JSON(http.StatusOK, rules)
}

func (s *Server) createRule(c *gin.Context) {
	var body ruleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var tags []string
	if body.Tags != nil {
		tags = *body.Tags
	}
	if err := s.rules.CreateRule(c.Request.Context(), body.Keyword, body.Category, tags); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Rule created", "keyword": body.Keyword})
}

func (s *Server) updateRule(c *gin.Context) {
	var body ruleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var tags []string
	if body.Tags != nil {
		tags = *body.Tags
		if tags == nil {
			tags = []string{}
		}
	}
	if err := s.rules.UpdateRule(c.Request.Context(), c.Param("keyword"), body.Category, tags); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule updated"})
}

func (s *Server) deleteRule(c *gin.Context) {
	if err := s.rules.DeleteRule(c.Request.Context(), c.Param("keyword")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
}

func (s *Server) applyKeywordCategory(c *gin.Context) {
	var body struct {
		Keyword  string `json:"keyword"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := s.apply.ApplyCategory(c.Request.Context(), body.Keyword, body.Category)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":             "Category applied",
		"updatedTransactions": updated,
		"ruleStored":          true,
	})
}

func (s *Server) applyKeywordTags(c *gin.Context) {
	var body struct {
		Keyword string   `json:"keyword"`
		Tags    []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := s.apply.ApplyTags(c.Request.Context(), body.Keyword, body.Tags)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":             "Tags applied",
		"updatedTransactions": updated,
		"ruleStored":          true,
	})
}
