package handlers

import (
	"net/http"

	"forecast-portal/internal/api/models"
	"forecast-portal/internal/journal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JournalHandler exposes recent proxy exchanges
type JournalHandler struct {
	journal *journal.Journal
	logger  *zap.Logger
}

// NewJournalHandler creates a journal handler. A nil journal yields empty lists.
func NewJournalHandler(j *journal.Journal, logger *zap.Logger) *JournalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalHandler{journal: j, logger: logger}
}

type journalData struct {
	Enabled bool                    `json:"enabled"`
	Counts  map[journal.Outcome]int `json:"counts"`
	Entries []journal.Entry         `json:"entries"`
}

// ListExchanges handles GET /api/v1/journal
func (h *JournalHandler) ListExchanges(c *gin.Context) {
	var q models.JournalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.Failure("Invalid request parameters", err.Error()))
		return
	}

	ctx := c.Request.Context()
	entries, err := h.journal.Recent(ctx, q.Feature, q.Limit)
	if err != nil {
		h.logger.Error("journal query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.Failure("Failed to read journal", err.Error()))
		return
	}
	counts, err := h.journal.Counts(ctx, q.Feature)
	if err != nil {
		h.logger.Error("journal count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.Failure("Failed to read journal", err.Error()))
		return
	}

	c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Data:    journalData{Enabled: h.journal != nil, Counts: counts, Entries: entries},
	})
}
