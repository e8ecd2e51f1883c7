package handlers

import (
	"net/http"

	"uploader/internal/catalog"
	"uploader/internal/logger"
	"uploader/internal/options"
	"uploader/internal/worker/processors/validation"

	"github.com/gin-gonic/gin"
)

type ClassifyHandler struct {
	validator *validation.Validator
	logger    *logger.Logger
}

func NewClassifyHandler(validator *validation.Validator, logger *logger.Logger) *ClassifyHandler {
	return &ClassifyHandler{
		validator: validator,
		logger:    logger,
	}
}

// ClassifyRequest carries a product in the vendor's detail format.
type ClassifyRequest struct {
	Product      catalog.Product `json:"product"`
	OptionSort   string          `json:"option_sort"`
	OptionCount  int             `json:"option_count"`
	PriceCluster bool            `json:"price_cluster"`
}

// Classify runs the full validation pipeline on a posted product without
// uploading anything.
// POST /api/v1/classify
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	sort, err := options.ParseSortMode(req.OptionSort)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d := h.validator.Validate(c.Request.Context(), &req.Product, validation.Options{
		Sort:         sort,
		Limit:        req.OptionCount,
		PriceCluster: req.PriceCluster,
	})

	resp := gin.H{
		"ready":      d.Ready,
		"code":       d.Code,
		"reason":     d.Reason,
		"safety":     d.Verdict,
		"label":      d.Verdict.Label(),
		"total":      d.Total,
		"valid":      nonNil(d.Valid),
		"bait":       nonNil(d.Bait),
		"duplicates": nonNil(d.Duplicates),
		"selected":   nonNil(d.Selected),
		"method":     d.Method,
	}
	if d.Ready {
		resp["main"] = d.Main
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func nonNil(skus []catalog.SKU) []catalog.SKU {
	if skus == nil {
		return []catalog.SKU{}
	}
	return skus
}
