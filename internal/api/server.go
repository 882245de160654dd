package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ibra/centime/internal/config"
	"github.com/ibra/centime/internal/service"
)

// Server wires the HTTP surface to the services.
type Server struct {
	log zerolog.Logger

	transactions *service.TransactionService
	tags         *service.TagService
	rules        *service.RuleService
	ingest       *service.IngestService
	apply        *service.ApplyService
	extractor    *service.Extractor
}

func NewServer(db *sql.DB, cfg config.Config, log zerolog.Logger) *Server {
	rules := service.NewRuleService(db)
	ingest := service.NewIngestService(db, rules)
	txSvc := service.NewTransactionService(db)
	return &Server{
		log:          log,
		transactions: txSvc,
		tags:         service.NewTagService(db),
		rules:        rules,
		ingest:       ingest,
		apply:        service.NewApplyService(db),
		extractor: &service.Extractor{
			Python:        cfg.Extractor.Python,
			ExtractScript: cfg.Extractor.ExtractScript,
			ProcessScript: cfg.Extractor.ProcessScript,
			Timeout:       time.Duration(cfg.Extractor.TimeoutSeconds) * time.Second,
			Ingest:        ingest,
			Transactions:  txSvc.Transactions,
		},
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.log))
	r.Use(cors())

	api := r.Group("/api")
	{
		api.GET("/transactions", s.listTransactions)
		api.POST("/transactions", s.createTransaction)
		api.GET("/transactions/category/:category", s.transactionsByCategory)
		api.GET("/transactions/tag/:tag", s.transactionsByTag)
		api.GET("/transactions/:id", s.getTransaction)
		api.DELETE("/transactions/:id", s.deleteTransaction)
		api.PUT("/transactions/:id/category", s.updateTransactionCategory)
		api.PUT("/transactions/:id/amount", s.updateTransactionAmount)
		api.PUT("/transactions/:id/description", s.updateTransactionDescription)
		api.GET("/transactions/:id/tags", s.transactionTags)
		api.POST("/transactions/:id/tags", s.addTransactionTag)
		api.DELETE("/transactions/:id/tags", s.removeTransactionTag)

		api.GET("/tags/stats", s.tagStats)
		api.POST("/tags", s.createTag)
		api.DELETE("/tags/:name", s.deleteTag)

		api.GET("/categories", s.listCategories)

		api.GET("/keyword-rules", s.listRules)
		api.POST("/keyword-rules", s.createRule)
		api.PUT("/keyword-rules/:keyword", s.updateRule)
		api.DELETE("/keyword-rules/:keyword", s.deleteRule)

		api.POST("/apply-keyword-category", s.applyKeywordCategory)
		api.POST("/apply-keyword-tags", s.applyKeywordTags)

		api.POST("/extract-emails", s.extractEmails)
		api.POST("/process-queue", s.processQueue)

		api.GET("/dashboard/stats", s.dashboardStats)
		api.GET("/dashboard/monthly-spending", s.monthlySpending)
		api.GET("/analytics/category-breakdown", s.categoryBreakdown)
	}
	return r
}

// respondError maps the service error taxonomy onto HTTP statuses in one
// place.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		ve *service.ValidationError
		de *service.DuplicateError
		nf *service.NotFoundError
		ep *service.ExternalProcessError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &de):
		status = http.StatusConflict
	case errors.As(err, &nf):
		status = http.StatusNotFound
	case errors.As(err, &ep):
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
