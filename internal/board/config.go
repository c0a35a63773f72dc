package board

import (
	"encoding"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Backend selects how the shift register lines and the button are reached.
type Backend string

const (
	// GPIOCDevBackend uses the Linux GPIO character device.
	GPIOCDevBackend Backend = "gpiocdev"
	// PeriphBackend uses periph.io pin names.
	PeriphBackend Backend = "periph"
	// BridgeBackend uses a microcontroller running the pin bridge firmware
	// over a serial port.
	BridgeBackend Backend = "bridge"
	// SimBackend draws the bar in the terminal; Enter presses the button.
	SimBackend Backend = "sim"
)

// VolumeSource selects where volume readings come from.
type VolumeSource string

const (
	// AudioSource captures audio and reports its peak amplitude.
	AudioSource VolumeSource = "audio"
	// BridgeSource asks the pin bridge for an ADC conversion.
	BridgeSource VolumeSource = "bridge"
	// SyntheticSource generates a slow triangle envelope.
	SyntheticSource VolumeSource = "synthetic"
)

// Config is the hardware configuration.
type Config struct {
	// Backend is the line backend. Defaults to "sim".
	Backend Backend `toml:"backend"`

	GPIOCDev GPIOCDevConfig `toml:"gpiocdev"`
	Periph   PeriphConfig   `toml:"periph"`
	Bridge   BridgeConfig   `toml:"bridge"`
	Volume   VolumeConfig   `toml:"volume"`
}

// GPIOCDevConfig configures the gpiocdev backend. Lines are offsets on Chip.
// An offset left at 0 takes its default, so line 0 cannot be used.
type GPIOCDevConfig struct {
	// Chip is the GPIO chip name, usually gpiochip0.
	Chip   string `toml:"chip"`
	Data   int    `toml:"data"`
	Clock  int    `toml:"clock"`
	Latch  int    `toml:"latch"`
	Button int    `toml:"button"`
}

// PeriphConfig configures the periph backend. Pins are periph.io names such
// as "GPIO17". Pins left empty take their defaults.
type PeriphConfig struct {
	Data   string `toml:"data"`
	Clock  string `toml:"clock"`
	Latch  string `toml:"latch"`
	Button string `toml:"button"`
}

// BridgeConfig configures the serial pin bridge.
type BridgeConfig struct {
	// Device is the path to the serial device, usually /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// Timeout bounds how long a volume sample may wait for its reading.
	Timeout Duration `toml:"timeout"`
}

// VolumeConfig configures the volume source.
type VolumeConfig struct {
	// Source is the volume source. Defaults to "synthetic".
	Source VolumeSource `toml:"source"`

	// Backend is the catnip input backend for the audio source, such as
	// "parec", "pipewire" or "ffmpeg-alsa".
	Backend string `toml:"backend"`
	// Device is the audio device. Empty picks the backend default.
	Device string `toml:"device"`
	// SampleRate is the audio sample rate.
	SampleRate float64 `toml:"sample_rate"`
	// SampleSize is the number of frames per captured buffer.
	SampleSize int `toml:"sample_size"`

	// Period is the length of one synthetic envelope cycle.
	Period Duration `toml:"period"`
}

// DefaultConfig returns a configuration that runs without any hardware.
func DefaultConfig() Config {
	return Config{
		Backend: SimBackend,
		GPIOCDev: GPIOCDevConfig{
			Chip:   "gpiochip0",
			Data:   17,
			Clock:  27,
			Latch:  22,
			Button: 23,
		},
		Periph: PeriphConfig{
			Data:   "GPIO17",
			Clock:  "GPIO27",
			Latch:  "GPIO22",
			Button: "GPIO23",
		},
		Bridge: BridgeConfig{
			Device:  "/dev/ttyACM0",
			Baud:    115200,
			Timeout: Duration(100 * time.Millisecond),
		},
		Volume: VolumeConfig{
			Source:     SyntheticSource,
			Backend:    "parec",
			SampleRate: 44100,
			SampleSize: 1024,
			Period:     Duration(4 * time.Second),
		},
	}
}

// SetDefaults fills every zero field with its DefaultConfig value.
func (c *Config) SetDefaults() {
	def := DefaultConfig()

	if c.Backend == "" {
		c.Backend = def.Backend
	}
	defaultValue(&c.GPIOCDev.Chip, def.GPIOCDev.Chip)
	defaultValue(&c.GPIOCDev.Data, def.GPIOCDev.Data)
	defaultValue(&c.GPIOCDev.Clock, def.GPIOCDev.Clock)
	defaultValue(&c.GPIOCDev.Latch, def.GPIOCDev.Latch)
	defaultValue(&c.GPIOCDev.Button, def.GPIOCDev.Button)
	defaultValue(&c.Periph.Data, def.Periph.Data)
	defaultValue(&c.Periph.Clock, def.Periph.Clock)
	defaultValue(&c.Periph.Latch, def.Periph.Latch)
	defaultValue(&c.Periph.Button, def.Periph.Button)
	if c.Bridge.Device == "" {
		c.Bridge.Device = def.Bridge.Device
	}
	if c.Bridge.Baud == 0 {
		c.Bridge.Baud = def.Bridge.Baud
	}
	if c.Bridge.Timeout == 0 {
		c.Bridge.Timeout = def.Bridge.Timeout
	}
	if c.Volume.Source == "" {
		c.Volume.Source = def.Volume.Source
	}
	if c.Volume.Backend == "" {
		c.Volume.Backend = def.Volume.Backend
	}
	if c.Volume.SampleRate == 0 {
		c.Volume.SampleRate = def.Volume.SampleRate
	}
	if c.Volume.SampleSize == 0 {
		c.Volume.SampleSize = def.Volume.SampleSize
	}
	if c.Volume.Period == 0 {
		c.Volume.Period = def.Volume.Period
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case GPIOCDevBackend:
		if c.GPIOCDev.Chip == "" {
			return errors.New("gpiocdev: no chip configured")
		}
		if err := distinct(c.GPIOCDev.Data, c.GPIOCDev.Clock, c.GPIOCDev.Latch, c.GPIOCDev.Button); err != nil {
			return errors.Wrap(err, "gpiocdev")
		}
	case PeriphBackend:
		p := c.Periph
		if p.Data == "" || p.Clock == "" || p.Latch == "" || p.Button == "" {
			return errors.New("periph: data, clock, latch and button pins are required")
		}
		if err := distinct(p.Data, p.Clock, p.Latch, p.Button); err != nil {
			return errors.Wrap(err, "periph")
		}
	case BridgeBackend:
		if c.Bridge.Device == "" {
			return errors.New("bridge: no serial device configured")
		}
		if c.Bridge.Baud <= 0 {
			return fmt.Errorf("bridge: invalid baud rate %d", c.Bridge.Baud)
		}
		if c.Bridge.Timeout <= 0 {
			return errors.New("bridge: timeout must be positive")
		}
	case SimBackend:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Volume.Source {
	case AudioSource:
		if c.Volume.Backend == "" {
			return errors.New("volume: audio source needs a backend")
		}
		if c.Volume.SampleRate <= 0 || c.Volume.SampleSize <= 0 {
			return errors.New("volume: sample rate and size must be positive")
		}
	case BridgeSource:
		if c.Backend != BridgeBackend {
			return errors.New("volume: bridge source needs the bridge backend")
		}
	case SyntheticSource:
		if time.Duration(c.Volume.Period) < minSyntheticPeriod {
			return fmt.Errorf("volume: synthetic period must be at least %s", minSyntheticPeriod)
		}
	default:
		return fmt.Errorf("unknown volume source %q", c.Volume.Source)
	}

	return nil
}

func defaultValue[T comparable](v *T, def T) {
	var zero T
	if *v == zero {
		*v = def
	}
}

func distinct[T comparable](pins ...T) error {
	seen := make(map[T]bool, len(pins))
	for _, p := range pins {
		if seen[p] {
			return fmt.Errorf("pin %v is assigned twice", p)
		}
		seen[p] = true
	}
	return nil
}

// Duration is a duration that can be parsed from TOML.
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = (*Duration)(nil)
)

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
