package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"candle_catalog/internal/api"
	"candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/candles/transport/http/dto"
)

// BackfillUsecase runs historical collections.
type BackfillUsecase interface {
	Run(ctx context.Context, req entity.BackfillRequest) (entity.BackfillResult, error)
}

// HistoricalHandler drives backfills and reports the catalog summary.
type HistoricalHandler struct {
	backfill BackfillUsecase
	candles  CandlesUsecase
}

// NewHistoricalHandler creates a HistoricalHandler.
func NewHistoricalHandler(backfill BackfillUsecase, candles CandlesUsecase) *HistoricalHandler {
	return &HistoricalHandler{backfill: backfill, candles: candles}
}

// Post dispatches on the request action.
//
// POST /historical {"action":"collect_by_days","pairs":["BTCUSDT"],"timeframes":["1h"],"days":7}
func (h *HistoricalHandler) Post(c *gin.Context) {
	var req dto.HistoricalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	switch req.Action {
	case dto.ActionGetSummary:
		h.Summary(c)
		return
	case dto.ActionCollectByRange:
		if req.StartDate == "" || req.EndDate == "" {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "startDate and endDate are required"})
			return
		}
	}

	// A backfill outlives the client connection; results are still persisted.
	ctx := context.WithoutCancel(c.Request.Context())
	res, err := h.backfill.Run(ctx, req.ToBackfillRequest())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Summary reports catalog totals.
//
// GET /historical
func (h *HistoricalHandler) Summary(c *gin.Context) {
	sum, err := h.candles.GetSummary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
