// SPDX-License-Identifier: EPL-2.0

// Package config holds the YAML configuration of the audwmark command.
package config

import (
	"log/slog"
	"time"

	"github.com/ik5/audwmark/watermark"
)

// LogLevel is the minimum level of emitted log records.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to a slog level. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the root configuration document.
type Config struct {
	LogLevel LogLevel      `yaml:"log_level"`
	Audio    AudioConfig   `yaml:"audio"`
	Embed    EmbedConfig   `yaml:"embed"`
	Detect   DetectConfig  `yaml:"detect"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// AudioConfig describes the layout of live PCM and the host frame size.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	FrameSize  int `yaml:"frame_size"`
}

// EmbedConfig tunes the embedder.
type EmbedConfig struct {
	Strength float64 `yaml:"strength"`
	Ceiling  float32 `yaml:"ceiling"`
}

// DetectConfig tunes the detector.
type DetectConfig struct {
	WindowSize      int           `yaml:"window_size"`
	Threshold       float64       `yaml:"threshold"`
	MaxMessageBytes int           `yaml:"max_message_bytes"`
	PollInterval    time.Duration `yaml:"poll_interval"`
}

// MetricsConfig configures the Prometheus endpoint. An empty ListenAddr
// disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	p := watermark.DefaultParams()

	return &Config{
		LogLevel: LogInfo,
		Audio: AudioConfig{
			SampleRate: 44100,
			Channels:   1,
			FrameSize:  512,
		},
		Embed: EmbedConfig{
			Strength: 0.004,
			Ceiling:  p.Ceiling,
		},
		Detect: DetectConfig{
			WindowSize:      p.WindowSize,
			Threshold:       p.Threshold,
			MaxMessageBytes: p.MaxMessageBytes,
			PollInterval:    500 * time.Millisecond,
		},
	}
}

// Params returns the watermark parameters selected by c.
func (c *Config) Params() watermark.Params {
	p := watermark.DefaultParams()
	p.WindowSize = c.Detect.WindowSize
	p.Threshold = c.Detect.Threshold
	p.MaxMessageBytes = c.Detect.MaxMessageBytes
	p.Ceiling = c.Embed.Ceiling

	return p
}

// Watermark returns the stream configuration for the given layout.
func (c *Config) Watermark(sampleRate, channels int) watermark.Config {
	return watermark.Config{
		SampleRate: sampleRate,
		Channels:   channels,
		Strength:   c.Embed.Strength,
	}
}
