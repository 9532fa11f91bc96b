package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/layercube/internal/sequence"
)

type SPI struct {
	Dev     string `yaml:"dev"`      // spireg name, e.g. /dev/spidev0.0; empty = first port
	SpeedHz int    `yaml:"speed_hz"` // e.g. 8000000
}

// Strip mirrors one row of the cube onto a short addressable strip.
type Strip struct {
	Enabled bool   `yaml:"enabled"`
	Dev     string `yaml:"dev,omitempty"` // empty prints to the terminal
	SpeedHz int    `yaml:"speed_hz,omitempty"`
	Layer   int    `yaml:"layer"`
	Row     int    `yaml:"row"`
}

type Playlist struct {
	Enabled bool            `yaml:"enabled"`
	Loop    bool            `yaml:"loop"`
	ClipS   float64         `yaml:"clip_s,omitempty"` // per-animation time when Clips is empty
	Clips   []sequence.Clip `yaml:"clips,omitempty"`
}

type Preview struct {
	Addr string `yaml:"addr"` // empty disables the server
	FPS  int    `yaml:"fps"`
}

type Config struct {
	Link       string  `yaml:"link"` // "sim" | "gpio"
	FPS        int     `yaml:"fps"`
	RefreshHz  int     `yaml:"refresh_hz"`
	Brightness float64 `yaml:"brightness"`
	HoldUs     int     `yaml:"hold_us"`
	MaxDeltaS  float64 `yaml:"max_delta_s"`
	Animation  string  `yaml:"animation"`
	Seed       int64   `yaml:"seed,omitempty"`
	Realtime   bool    `yaml:"realtime"` // sim link only

	SPI      SPI      `yaml:"spi"`
	Strip    Strip    `yaml:"strip"`
	Playlist Playlist `yaml:"playlist"`
	Preview  Preview  `yaml:"preview"`
}

func Default() *Config {
	return &Config{
		Link:       "sim",
		FPS:        60,
		RefreshHz:  60,
		Brightness: 1.0,
		HoldUs:     100,
		MaxDeltaS:  0.1,
		Animation:  "Rain",
		Realtime:   true,
		SPI:        SPI{SpeedHz: 8_000_000},
		Strip:      Strip{Row: 32},
		Playlist:   Playlist{Loop: true, ClipS: sequence.DefaultClipSeconds},
		Preview:    Preview{Addr: ":8080", FPS: 20},
	}
}

// Load reads path over the defaults, so absent keys keep their default.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch c.Link {
	case "sim", "gpio":
	default:
		return fmt.Errorf("link must be sim or gpio, got %q", c.Link)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.RefreshHz <= 0 {
		return fmt.Errorf("refresh_hz must be positive, got %d", c.RefreshHz)
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		return fmt.Errorf("brightness must be within [0,1], got %v", c.Brightness)
	}
	if c.MaxDeltaS <= 0 {
		return fmt.Errorf("max_delta_s must be positive, got %v", c.MaxDeltaS)
	}
	return nil
}
