package handlers

import (
	"net/http"
	"strings"

	"uploader/internal/database"
	"uploader/internal/events"
	"uploader/internal/logger"
	"uploader/internal/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RunHandler struct {
	repo      *database.Repository
	publisher events.Publisher
	logger    *logger.Logger
}

func NewRunHandler(repo *database.Repository, publisher events.Publisher, logger *logger.Logger) *RunHandler {
	return &RunHandler{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *RunHandler) List(c *gin.Context) {
	page, limit, offset := pagination(c)

	runs, total, err := h.repo.ListRuns(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.repo.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": run})
}

func (h *RunHandler) Results(c *gin.Context) {
	results, err := h.repo.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

// Create queues a run for the worker. The run record appears once the
// worker picks it up.
func (h *RunHandler) Create(c *gin.Context) {
	var req events.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	req.Session = strings.TrimSpace(req.Session)
	if req.Session == "" || (len(req.Groups) == 0 && req.TestProductID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session and groups are required"})
		return
	}
	if len(req.Markets) > 0 {
		if _, err := orchestrator.ParseMarkets(req.Markets); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	runID := uuid.New().String()
	event, err := events.New(events.TypeUploadRequested, runID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("run %s queued for session %s", runID, req.Session)
	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"run_id": runID}})
}
