// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/animrender/pkg/render"
)

// Config represents the full configuration for the renderer.
type Config struct {
	// Output
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Container string `yaml:"container"`
	Codec     string `yaml:"codec"`
	FrameRate int    `yaml:"frame_rate"`

	// Bitrate
	Bitrate BitrateConfig `yaml:"bitrate"`

	// Rendering
	EnableAlpha bool             `yaml:"enable_alpha"`
	Loop        bool             `yaml:"loop"`
	Pipeline    string           `yaml:"pipeline"`
	Decimation  DecimationConfig `yaml:"decimation"`
	Poster      PosterConfig     `yaml:"poster"`

	// Resources
	Workers int         `yaml:"workers"`
	Cache   CacheConfig `yaml:"cache"`

	// Codec runtime
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// BitrateConfig holds target and ceiling bitrates in kbps.
type BitrateConfig struct {
	TargetKbps int `yaml:"target_kbps"`
	MaxKbps    int `yaml:"max_kbps"`
}

// DecimationConfig controls similarity-based frame dropping.
type DecimationConfig struct {
	Enabled             bool    `yaml:"enabled"`
	MinIntervalMs       int     `yaml:"min_interval_ms"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// PosterConfig controls poster frame production.
type PosterConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
}

// CacheConfig controls the render cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	TTLMinutes int `yaml:"ttl_minutes"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Width:     480,
		Height:    480,
		Container: "mp4",
		Codec:     "h264",
		FrameRate: 30,
		Bitrate: BitrateConfig{
			TargetKbps: 1000,
			MaxKbps:    2000,
		},
		Pipeline: "quality",
		Decimation: DecimationConfig{
			Enabled:             true,
			MinIntervalMs:       33,
			SimilarityThreshold: 0.95,
		},
		Poster: PosterConfig{
			Enabled: true,
			Format:  "png",
		},
		Cache: CacheConfig{
			MaxEntries: 32,
			TTLMinutes: 15,
		},
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints before a render is attempted.
func (c Config) Validate() error {
	if c.Container != string(render.ContainerMP4) && c.Container != string(render.ContainerWebM) {
		return fmt.Errorf("container must be mp4 or webm, got %q", c.Container)
	}
	switch c.Codec {
	case string(render.CodecH264), string(render.CodecH265), string(render.CodecVP9):
	default:
		return fmt.Errorf("codec must be h264, h265 or vp9, got %q", c.Codec)
	}
	if c.FrameRate < 1 || c.FrameRate > 60 {
		return fmt.Errorf("frame_rate must be in [1,60], got %d", c.FrameRate)
	}
	if c.Bitrate.TargetKbps > c.Bitrate.MaxKbps {
		return fmt.Errorf("bitrate target %dk exceeds max %dk", c.Bitrate.TargetKbps, c.Bitrate.MaxKbps)
	}
	if c.EnableAlpha && c.Container != string(render.ContainerWebM) {
		return fmt.Errorf("enable_alpha requires the webm container")
	}
	if c.Decimation.Enabled {
		if c.Decimation.MinIntervalMs < 8 || c.Decimation.MinIntervalMs > 200 {
			return fmt.Errorf("decimation.min_interval_ms must be in [8,200], got %d", c.Decimation.MinIntervalMs)
		}
		if c.Decimation.SimilarityThreshold < 0 || c.Decimation.SimilarityThreshold > 1 {
			return fmt.Errorf("decimation.similarity_threshold must be in [0,1], got %f", c.Decimation.SimilarityThreshold)
		}
	}
	return nil
}

// ToRenderOptions converts Config to render.Options.
func (c Config) ToRenderOptions() render.Options {
	return render.Options{
		Configuration: render.Configuration{
			Width:       c.Width,
			Height:      c.Height,
			Container:   render.Container(c.Container),
			Codec:       render.Codec(c.Codec),
			FrameRate:   c.FrameRate,
			Bitrate: render.BitrateSettings{
				TargetKbps: c.Bitrate.TargetKbps,
				MaxKbps:    c.Bitrate.MaxKbps,
			},
			EnableAlpha: c.EnableAlpha,
			Loop:        c.Loop,
			Decimation: render.DecimationSettings{
				Enabled:             c.Decimation.Enabled,
				MinIntervalMs:       c.Decimation.MinIntervalMs,
				SimilarityThreshold: c.Decimation.SimilarityThreshold,
			},
		},
		Pipeline: render.Pipeline(c.Pipeline),
		Fallback: render.FallbackSettings{
			ProducePosterFrame: c.Poster.Enabled,
			PosterFormat:       render.PosterFormat(c.Poster.Format),
		},
	}
}
