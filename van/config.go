package van

import (
	"errors"
	"fmt"
)

// Defaults for the decoder options.
const (
	DefaultNominalBitrate     = 125000.0
	DefaultSamplePointPercent = 70.0
)

// ErrNoSampleRate is returned when decoding is attempted without the
// input stream's sampling rate. This is the only fatal configuration
// error; everything else the decoder reports as warning events.
var ErrNoSampleRate = errors.New("cannot decode without a samplerate")

// Config captures the decode options supplied by the host.
type Config struct {
	// SampleRate is the sampling rate of the input stream in samples/s.
	// It has no default and must be set before decoding starts.
	SampleRate float64 `yaml:"samplerate"`

	// NominalBitrate is the nominal bus bit rate in bits/s.
	NominalBitrate float64 `yaml:"nominalBitrate"`

	// DataBitrate is the post-arbitration bit rate used for the data and
	// CRC phases of flexible-data frames that request a rate switch.
	// Zero disables mid-frame rate switching.
	DataBitrate float64 `yaml:"dataBitrate"`

	// SamplePointPercent places the sample point within a bit period.
	SamplePointPercent float64 `yaml:"samplePoint"`
}

// DefaultConfig returns a Config with the standard option defaults.
// The sample rate is left unset and must be provided by the host.
func DefaultConfig() Config {
	return Config{
		NominalBitrate:     DefaultNominalBitrate,
		SamplePointPercent: DefaultSamplePointPercent,
	}
}

// Validate checks the configuration before decoding starts.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return ErrNoSampleRate
	}
	if c.NominalBitrate <= 0 {
		return fmt.Errorf("invalid nominal bitrate %v", c.NominalBitrate)
	}
	if c.DataBitrate < 0 {
		return fmt.Errorf("invalid data bitrate %v", c.DataBitrate)
	}
	if c.SamplePointPercent <= 0 || c.SamplePointPercent >= 100 {
		return fmt.Errorf("sample point %v%% outside the bit period", c.SamplePointPercent)
	}
	if c.SampleRate < c.NominalBitrate {
		return fmt.Errorf("samplerate %v below bitrate %v", c.SampleRate, c.NominalBitrate)
	}
	if c.DataBitrate > c.SampleRate {
		return fmt.Errorf("samplerate %v below data bitrate %v", c.SampleRate, c.DataBitrate)
	}
	return nil
}
