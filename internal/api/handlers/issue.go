package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"uploader/internal/logger"
	"uploader/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type IssueHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewIssueHandler(db *gorm.DB, logger *logger.Logger) *IssueHandler {
	return &IssueHandler{
		db:     db,
		logger: logger,
	}
}

func (h *IssueHandler) List(c *gin.Context) {
	issues := make([]models.Issue, 0)

	page, limit, offset := pagination(c)

	query := h.db.Model(&models.Issue{})
	for _, f := range []string{"severity", "channel", "code", "run_id", "product_id"} {
		if v := c.Query(f); v != "" {
			query = query.Where(f+" = ?", v)
		}
	}
	switch c.Query("resolved") {
	case "true":
		query = query.Where("is_resolved = ?", true)
	case "false":
		query = query.Where("is_resolved = ?", false)
	}

	var total int64
	query.Count(&total)

	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&issues).Error; err != nil {
		h.logger.Error("Failed to fetch issues: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": issues,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *IssueHandler) Get(c *gin.Context) {
	issue, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": issue})
}

func (h *IssueHandler) Resolve(c *gin.Context) {
	issue, ok := h.find(c)
	if !ok {
		return
	}

	now := time.Now()
	issue.IsResolved = true
	issue.ResolvedAt = &now
	if err := h.db.Save(issue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve issue"})
		return
	}

	h.logger.Info("issue %s for product %s resolved", issue.ID, issue.ProductID)
	c.JSON(http.StatusOK, gin.H{"data": issue})
}

func (h *IssueHandler) find(c *gin.Context) (*models.Issue, bool) {
	var issue models.Issue
	if err := h.db.First(&issue, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch issue"})
		return nil, false
	}
	return &issue, true
}

// pagination reads page and limit, clamping both to sane values.
func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}
