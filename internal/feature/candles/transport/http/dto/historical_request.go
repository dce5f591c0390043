package dto

import "candle_catalog/internal/feature/candles/domain/entity"

// Historical actions accepted by POST /historical.
const (
	ActionCollectByDays  = "collect_by_days"
	ActionCollectByRange = "collect_by_range"
	ActionGetSummary     = "get_summary"
)

// HistoricalRequest is the POST /historical body.
type HistoricalRequest struct {
	Action     string   `json:"action" binding:"required,oneof=collect_by_days collect_by_range get_summary"`
	Pairs      []string `json:"pairs"`
	Timeframes []string `json:"timeframes"`
	Days       int      `json:"days" binding:"omitempty,gte=0,lte=3650"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
}

// ToBackfillRequest maps the body onto a backfill request. The action decides
// which of the range selectors is honoured.
func (r HistoricalRequest) ToBackfillRequest() entity.BackfillRequest {
	req := entity.BackfillRequest{Pairs: r.Pairs, Timeframes: r.Timeframes}
	if r.Action == ActionCollectByRange {
		req.StartDate, req.EndDate = r.StartDate, r.EndDate
		return req
	}
	req.Days = r.Days
	return req
}
