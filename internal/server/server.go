package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"FlipScout/internal/export"
	"FlipScout/internal/logger"
	"FlipScout/internal/runner"
	"FlipScout/internal/scorer"
	"FlipScout/internal/store"
)

var log = logger.WithComponent("server")

// Server is the HTTP surface replacing the original desktop shell: it
// accepts a starting budget plus the RL toggle, exposes progress, and
// serves stored data.
type Server struct {
	runner    *runner.Runner
	store     store.Store
	exportDir string
	engine    *gin.Engine
}

// New builds the router.
func New(r *runner.Runner, st store.Store, exportDir string) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		runner:    r,
		store:     st,
		exportDir: exportDir,
		engine:    gin.New(),
	}
	s.engine.Use(gin.Recovery())

	api := s.engine.Group("/api")
	api.POST("/suggestions", s.handleSuggestions)
	api.POST("/train", s.handleTrain)
	api.GET("/progress", s.handleProgress)
	api.GET("/items", s.handleItems)
	api.GET("/items/:id/prices", s.handlePrices)

	s.engine.GET("/ws/progress", s.handleProgressWS)
	return s
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	log.WithField("addr", addr).Info("http server listening")
	return s.engine.Run(addr)
}

type suggestionsRequest struct {
	StartingBudget int64 `json:"starting_budget"`
	UseRL          bool  `json:"use_rl"`
	Export         bool  `json:"export"`
}

func (s *Server) handleSuggestions(c *gin.Context) {
	var req suggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.runner.Run(c.Request.Context(), req.StartingBudget, req.UseRL)
	if err != nil {
		switch {
		case errors.Is(err, runner.ErrInvalidBudget):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, runner.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, runner.ErrNoData):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			log.WithError(err).Error("suggestion run failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	if req.Export && len(result.Suggestions) > 0 {
		if path, err := export.Suggestions(s.exportDir, result.Suggestions); err != nil {
			log.WithError(err).Warn("export failed")
		} else {
			c.Header("X-Export-Path", path)
		}
	}
	c.JSON(http.StatusOK, result)
}

type trainRequest struct {
	UseRL bool `json:"use_rl"`
}

func (s *Server) handleTrain(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	msg, err := s.runner.Train(c.Request.Context(), req.UseRL)
	if err != nil {
		switch {
		case errors.Is(err, runner.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, scorer.ErrInsufficientData):
			c.JSON(http.StatusOK, gin.H{"message": err.Error()})
		default:
			log.WithError(err).Error("training failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (s *Server) handleProgress(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.LastProgress())
}

func (s *Server) handleItems(c *gin.Context) {
	items, err := s.store.AllItems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) handlePrices(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	prices, err := s.store.Prices(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": id, "prices": prices, "count": len(prices)})
}
