package idle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHIDIdleTime(t *testing.T) {
	out := []byte(`
    | |   {
    | |     "IOClass" = "IOHIDSystem"
    | |     "HIDIdleTime" = 2500000000
    | |     "HIDParameters" = {}
`)

	d, err := parseHIDIdleTime(out)
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, d)
}

func TestParseHIDIdleTimeMissing(t *testing.T) {
	_, err := parseHIDIdleTime([]byte(`"IOClass" = "IOHIDSystem"`))
	assert.Error(t, err)
}
