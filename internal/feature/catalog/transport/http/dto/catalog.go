package dto

// StartRequest is the optional POST /catalog/start body.
type StartRequest struct {
	// Interval in seconds, at most one day; 0 keeps the configured default.
	Interval int `json:"interval" binding:"gte=0,lte=86400"`
}

// ResetRequest is the optional POST /admin/reset body.
type ResetRequest struct {
	Days int `json:"days" binding:"gte=0,lte=3650"`
}
