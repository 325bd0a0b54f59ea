package models

// ForecastQuery is the query string accepted by the transforming forecast proxy.
type ForecastQuery struct {
	Metric  string `form:"metric"`
	Periods *int   `form:"periods" binding:"omitempty,min=6,max=24"`
	Method  string `form:"method" binding:"omitempty,oneof=arima exponential_smoothing"`
}

// JournalQuery filters GET /api/v1/journal
type JournalQuery struct {
	Feature string `form:"feature"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
}
