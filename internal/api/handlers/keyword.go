package handlers

import (
	"net/http"

	"uploader/internal/keywords"
	"uploader/internal/logger"

	"github.com/gin-gonic/gin"
)

type KeywordHandler struct {
	store  *keywords.Store
	logger *logger.Logger
}

func NewKeywordHandler(store *keywords.Store, logger *logger.Logger) *KeywordHandler {
	return &KeywordHandler{
		store:  store,
		logger: logger,
	}
}

func (h *KeywordHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.store.Get().File()})
}

// Update overrides the keys present in the body and persists the result.
// PUT /api/v1/keywords
func (h *KeywordHandler) Update(c *gin.Context) {
	var f keywords.File
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	set, err := h.store.Update(f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("keyword set updated: %d bait, %d banned categories", len(set.Bait.Keywords), len(set.Safety.Banned))
	c.JSON(http.StatusOK, gin.H{"data": set.File()})
}
