package smoke

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, StateLoaded, Normalize("loaded"))
	assert.Equal(t, StateError, Normalize("error"))
	assert.Equal(t, StateLoading, Normalize(""))
	assert.Equal(t, StateLoading, Normalize("rendering"))
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 30*time.Second, o.Timeout)
	assert.Equal(t, 200*time.Millisecond, o.Poll)
	assert.NotNil(t, o.Logger)

	o = Options{Timeout: time.Second, Poll: time.Millisecond}.withDefaults()
	assert.Equal(t, time.Second, o.Timeout)
	assert.Equal(t, time.Millisecond, o.Poll)
}

func TestReportOK(t *testing.T) {
	assert.True(t, (&Report{State: StateLoaded}).OK())
	assert.False(t, (&Report{State: StateError}).OK())
}
