// Package server exposes the operational HTTP surface: trigger a collection
// cycle, manage the check interval, list and add tracked accounts, and
// recompute window metrics. Handlers are thin pass-throughs into the
// collector and the store.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okarpachev/promopulse/internal/collector"
	"github.com/okarpachev/promopulse/internal/models"
	"github.com/okarpachev/promopulse/internal/validator"
)

// AccountStore is the slice of storage the HTTP surface needs.
type AccountStore interface {
	ListAccounts(ctx context.Context) ([]models.TrackedAccount, error)
	AppendAccount(ctx context.Context, account *models.TrackedAccount) error
}

type Server struct {
	collector *collector.Collector
	scheduler *collector.Scheduler
	store     AccountStore
	validate  *validator.Validator
}

func New(c *collector.Collector, s *collector.Scheduler, store AccountStore) *Server {
	return &Server{
		collector: c,
		scheduler: s,
		store:     store,
		validate:  validator.New(),
	}
}

// Router builds the gin engine with all operational routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.health)
	r.POST("/collect/run", s.triggerCollection)
	r.GET("/collect/interval", s.getInterval)
	r.PUT("/collect/interval", s.setInterval)
	r.GET("/accounts", s.listAccounts)
	r.POST("/accounts", s.addAccount)
	r.POST("/metrics/recompute", s.recomputeMetrics)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// triggerCollection kicks an asynchronous cycle. The run lock is taken
// before responding, so a conflicting cycle answers 409 instead of being
// silently dropped in the background.
func (s *Server) triggerCollection(c *gin.Context) {
	if err := s.collector.StartCycle(c.Request.Context()); err != nil {
		if errors.Is(err, collector.ErrCycleRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "a collection cycle is already running"})
			return
		}
		slog.Error("Failed to start collection cycle", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start collection"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "collection started"})
}

func (s *Server) getInterval(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"interval": s.collector.Interval().String()})
}

type intervalRequest struct {
	Interval string `json:"interval" binding:"required"`
}

func (s *Server) setInterval(c *gin.Context) {
	var req intervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval is required"})
		return
	}
	d, err := time.ParseDuration(req.Interval)
	if err != nil || d <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval must be a positive duration like \"6h\""})
		return
	}
	s.scheduler.Reschedule(d)
	c.JSON(http.StatusOK, gin.H{"interval": d.String()})
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.store.ListAccounts(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list accounts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (s *Server) addAccount(c *gin.Context) {
	var account models.TrackedAccount
	if err := c.ShouldBindJSON(&account); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account payload"})
		return
	}
	if _, err := models.ParsePlatform(string(account.Platform)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validate.ValidateStruct(account); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.AppendAccount(c.Request.Context(), &account); err != nil {
		slog.Error("Failed to add account", "account", account.AccountURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add account"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

func (s *Server) recomputeMetrics(c *gin.Context) {
	if err := s.collector.RecomputeAll(c.Request.Context()); err != nil {
		slog.Error("Failed to recompute metrics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to recompute metrics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "metrics recomputed"})
}
