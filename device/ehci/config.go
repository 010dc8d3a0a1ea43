package ehci

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/ardnew/usbd/device/hal"
	"github.com/ardnew/usbd/pkg"
)

// Speed names accepted by [Config].
const (
	SpeedFull = "full"
	SpeedHigh = "high"
)

// Default configuration values.
const (
	DefaultMaxEndpoints     = NumEndpoints
	DefaultSetupRetries     = 8
	DefaultEP0MaxPacketSize = 64
)

// Config tunes a [BusAdapter].
type Config struct {
	// MaxEndpoints limits the endpoint numbers handed out, 1 through
	// [NumEndpoints]. Endpoint 0 counts toward the limit.
	MaxEndpoints int `yaml:"max_endpoints"`

	// Speed is "full" to force full speed, or "high" to let the port
	// negotiate high speed.
	Speed string `yaml:"speed"`

	// SetupRetries bounds the setup tripwire loop.
	SetupRetries int `yaml:"setup_retries"`

	// EP0MaxPacketSize is the control endpoint packet size: 8, 16, 32 or 64.
	EP0MaxPacketSize int `yaml:"ep0_max_packet_size"`

	// ZeroLengthTermination enables automatic zero length packets on every
	// allocated endpoint.
	ZeroLengthTermination bool `yaml:"zero_length_termination"`
}

// DefaultConfig returns a full speed configuration using every endpoint.
func DefaultConfig() Config {
	return Config{
		MaxEndpoints:     DefaultMaxEndpoints,
		Speed:            SpeedFull,
		SetupRetries:     DefaultSetupRetries,
		EP0MaxPacketSize: DefaultEP0MaxPacketSize,
	}
}

// ParseConfig decodes YAML over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	return LoadConfig(bytes.NewReader(data))
}

// LoadConfig decodes YAML from r over the defaults and validates the
// result. Unknown keys are rejected. An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode: %w: %w", pkg.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.MaxEndpoints < 1 || c.MaxEndpoints > NumEndpoints {
		return fmt.Errorf("max_endpoints %d not in 1..%d: %w",
			c.MaxEndpoints, NumEndpoints, pkg.ErrInvalidConfig)
	}
	switch c.Speed {
	case SpeedFull, SpeedHigh:
	default:
		return fmt.Errorf("speed %q: %w", c.Speed, pkg.ErrInvalidConfig)
	}
	if c.SetupRetries < 1 {
		return fmt.Errorf("setup_retries %d: %w", c.SetupRetries, pkg.ErrInvalidConfig)
	}
	switch c.EP0MaxPacketSize {
	case 8, 16, 32, 64:
	default:
		return fmt.Errorf("ep0_max_packet_size %d: %w", c.EP0MaxPacketSize, pkg.ErrInvalidConfig)
	}
	return nil
}

// speed returns the configured speed as a [hal.Speed].
func (c Config) speed() hal.Speed {
	if c.Speed == SpeedHigh {
		return hal.SpeedHigh
	}
	return hal.SpeedFull
}
