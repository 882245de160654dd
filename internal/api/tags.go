package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ibra/centime/internal/database/repository"
)

func (s *Server) tagStats(c *gin.Context) {
	stats, err := s.tags.ListWithStats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if stats == nil {
		stats = []repository.TagStat{}
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) createTag(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := s.tags.Create(c.Request.Context(), body.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (s *Server) deleteTag(c *gin.Context) {
	if err := s.tags.Delete(c.Request.Context(), c.Param("name")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted"})
}

func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.transactions.Categories(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if cats == nil {
		cats = []repository.CategoryStat{}
	}
	c.JSON(http.StatusOK, cats)
}
