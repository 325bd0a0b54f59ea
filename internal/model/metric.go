package model

import "strings"

// Metric maps a client-facing metric name onto the forecasting API sub-path
// that serves it.
type Metric struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Label string `json:"label"`
}

const (
	DefaultMetric  = "inventory_level"
	DefaultPeriods = 12
	MinPeriods     = 6
	MaxPeriods     = 24

	MethodARIMA                = "arima"
	MethodExponentialSmoothing = "exponential_smoothing"
)

// Metrics is the fixed lookup table of forecastable metrics.
var Metrics = []Metric{
	{Key: "inventory_level", Path: "inventory-level", Label: "Inventory Level"},
	{Key: "inflow_quantity", Path: "inflow-quantity", Label: "Inflow Quantity"},
	{Key: "outflow_quantity", Path: "outflow-quantity", Label: "Outflow Quantity"},
	{Key: "inflow_gik", Path: "inflow-gik-value", Label: "Inflow GIK Value"},
	{Key: "outflow_gik", Path: "outflow-gik-value", Label: "Outflow GIK Value"},
}

// LookupMetric accepts either the metric key or its API path.
// An empty name resolves to DefaultMetric.
func LookupMetric(name string) (Metric, bool) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		name = DefaultMetric
	}
	for _, m := range Metrics {
		if m.Key == name || m.Path == name {
			return m, true
		}
	}
	return Metric{}, false
}

func ValidMethod(method string) bool {
	return method == MethodARIMA || method == MethodExponentialSmoothing
}
