package models

// Envelope is the uniform response shape of every proxy and API error:
// {success, data?, error?, details?}.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Failure builds a {success:false} envelope.
func Failure(message, details string) Envelope {
	return Envelope{Success: false, Error: message, Details: details}
}

// FeatureInfo describes one dashboard for GET /api/v1/features
type FeatureInfo struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	DashboardURL string `json:"dashboard_url"`
	ProxyURL     string `json:"proxy_url"`
	Transform    string `json:"transform,omitempty"`
}

// StatusResponse is the result of probing every feature's upstream.
type StatusResponse struct {
	Success bool          `json:"success"`
	Summary StatusSummary `json:"summary"`
	Results []ProbeResult `json:"results"`
}

type StatusSummary struct {
	Successful  int    `json:"successful"`
	Total       int    `json:"total"`
	SuccessRate string `json:"success_rate"`
}

// ProbeResult is the outcome of one feature's upstream GET.
type ProbeResult struct {
	Feature    string `json:"feature"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	DurationMS int64  `json:"duration_ms"`
	Outcome    string `json:"outcome"`
	Cached     bool   `json:"cached"`
	Error      string `json:"error,omitempty"`
}
