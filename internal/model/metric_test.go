package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupMetric(t *testing.T) {
	tests := []struct {
		in       string
		wantPath string
		wantOK   bool
	}{
		{"", "inventory-level", true},
		{"inventory_level", "inventory-level", true},
		{"INFLOW_QUANTITY", "inflow-quantity", true},
		{"outflow-quantity", "outflow-quantity", true},
		{"inflow_gik", "inflow-gik-value", true},
		{" outflow_gik ", "outflow-gik-value", true},
		{"revenue", "", false},
	}
	for _, tt := range tests {
		m, ok := LookupMetric(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.wantPath, m.Path, tt.in)
	}
}

func TestValidMethod(t *testing.T) {
	assert.True(t, ValidMethod("arima"))
	assert.True(t, ValidMethod("exponential_smoothing"))
	assert.False(t, ValidMethod("prophet"))
	assert.False(t, ValidMethod(""))
}
