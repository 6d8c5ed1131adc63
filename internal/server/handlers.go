package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/logging"
)

type handlers struct {
	emissions Emissions
	summaries Summaries
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listEmissions(c *gin.Context) {
	records, err := h.emissions.AggregateAll(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *handlers) listProducts(c *gin.Context) {
	summaries, err := h.summaries.SummarizeProducts(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	if summaries == nil {
		summaries = []engine.ProductSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *handlers) getProduct(c *gin.Context) {
	summary, err := h.summaries.SummarizeProduct(c.Request.Context(), c.Param("id"))
	if errors.Is(err, engine.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// internalError logs err and answers 500 without exposing it.
func internalError(c *gin.Context, err error) {
	logging.FromContext(c.Request.Context()).Error().Err(err).
		Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
