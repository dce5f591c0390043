package entity

import "time"

// DateLayout is the calendar date format accepted by range backfills.
const DateLayout = "2006-01-02"

// BackfillRequest describes one historical collection run.
// Exactly one of Days (> 0) or StartDate/EndDate selects the range; EndDate is inclusive.
type BackfillRequest struct {
	Pairs      []string
	Timeframes []string
	Days       int
	StartDate  string // "YYYY-MM-DD"
	EndDate    string // "YYYY-MM-DD"
}

// ByRange reports whether the request uses calendar dates instead of a day count.
func (r BackfillRequest) ByRange() bool {
	return r.StartDate != "" || r.EndDate != ""
}

// Period is a resolved half-open time range [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ChunkFailure records one exchange request that could not be completed.
type ChunkFailure struct {
	Pair      string    `json:"pair"`
	Timeframe string    `json:"timeframe"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Error     string    `json:"error"`
}

// ComboResult summarises the outcome for a single (pair, timeframe) combination.
type ComboResult struct {
	Pair      string `json:"pair"`
	Timeframe string `json:"timeframe"`
	Requests  int    `json:"requests"`
	Found     int    `json:"found"`
	Saved     int    `json:"saved"`
	Errors    int    `json:"errors"`
}

// BackfillResult is the outcome of a backfill run.
// Success is false only when the request was rejected before any work started.
type BackfillResult struct {
	RunID        string         `json:"runId,omitempty"`
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	TotalFound   int            `json:"totalFound"`
	Saved        int            `json:"saved"`
	Errors       int            `json:"errors"`
	Period       Period         `json:"period"`
	Combos       []ComboResult  `json:"combos,omitempty"`
	FailedChunks []ChunkFailure `json:"failedChunks,omitempty"`
}
