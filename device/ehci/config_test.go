package ehci

import (
	"strings"
	"testing"

	"github.com/ardnew/usbd/device/hal"
	"github.com/ardnew/usbd/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, NumEndpoints, cfg.MaxEndpoints)
	assert.Equal(t, hal.SpeedFull, cfg.speed())
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
max_endpoints: 4
speed: high
setup_retries: 3
ep0_max_packet_size: 8
zero_length_termination: true
`))
	require.NoError(t, err)
	assert.Equal(t, Config{
		MaxEndpoints:          4,
		Speed:                 SpeedHigh,
		SetupRetries:          3,
		EP0MaxPacketSize:      8,
		ZeroLengthTermination: true,
	}, cfg)
	assert.Equal(t, hal.SpeedHigh, cfg.speed())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = ParseConfig([]byte("setup_retries: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.SetupRetries)
	assert.Equal(t, DefaultEP0MaxPacketSize, cfg.EP0MaxPacketSize)
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "max_endpoint: 4\n"},
		{"too many endpoints", "max_endpoints: 9\n"},
		{"no endpoints", "max_endpoints: 0\n"},
		{"speed", "speed: low\n"},
		{"retries", "setup_retries: 0\n"},
		{"ep0 size", "ep0_max_packet_size: 48\n"},
		{"syntax", "speed: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.ErrorIs(t, err, pkg.ErrInvalidConfig)
		})
	}
}
