package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

// DecoderConfig selects the decoder implementation.
type DecoderConfig struct {
	Kind string `yaml:"kind" env:"EXPLORER_DECODER_KIND, overwrite"`
	Seed int64  `yaml:"seed" env:"EXPLORER_DECODER_SEED, overwrite"`
}

// WorkerConfig tunes the background decode worker.
type WorkerConfig struct {
	CacheSize int `yaml:"cache_size" env:"EXPLORER_WORKER_CACHE_SIZE, overwrite"`
}

// AudioConfig describes the output device and playback pipeline.
type AudioConfig struct {
	Backend         string        `yaml:"backend" env:"EXPLORER_AUDIO_BACKEND, overwrite"`
	Device          string        `yaml:"device" env:"EXPLORER_AUDIO_DEVICE, overwrite"`
	SampleRate      int           `yaml:"sample_rate" env:"EXPLORER_AUDIO_SAMPLE_RATE, overwrite"`
	Channels        int           `yaml:"channels" env:"EXPLORER_AUDIO_CHANNELS, overwrite"`
	BufferFrames    int           `yaml:"buffer_frames" env:"EXPLORER_AUDIO_BUFFER_FRAMES, overwrite"`
	MinBufferFrames int           `yaml:"min_buffer_frames" env:"EXPLORER_AUDIO_MIN_BUFFER_FRAMES, overwrite"`
	MaxBufferFrames int           `yaml:"max_buffer_frames" env:"EXPLORER_AUDIO_MAX_BUFFER_FRAMES, overwrite"`
	RebuildDebounce time.Duration `yaml:"rebuild_debounce" env:"EXPLORER_AUDIO_REBUILD_DEBOUNCE, overwrite"`
	Resampler       string        `yaml:"resampler" env:"EXPLORER_AUDIO_RESAMPLER, overwrite"`
}

// UIConfig controls the terminal editor.
type UIConfig struct {
	FrameRate    int    `yaml:"frame_rate" env:"EXPLORER_UI_FRAME_RATE, overwrite"`
	MaxFragments int    `yaml:"max_fragments" env:"EXPLORER_UI_MAX_FRAGMENTS, overwrite"`
	MaxLayers    int    `yaml:"max_layers" env:"EXPLORER_UI_MAX_LAYERS, overwrite"`
	ExportDir    string `yaml:"export_dir" env:"EXPLORER_UI_EXPORT_DIR, overwrite"`
}

// Config stores the application configuration.
type Config struct {
	LogLevel string        `yaml:"log_level" env:"EXPLORER_LOG_LEVEL, overwrite"`
	LogFile  string        `yaml:"log_file" env:"EXPLORER_LOG_FILE, overwrite"`
	Decoder  DecoderConfig `yaml:"decoder"`
	Worker   WorkerConfig  `yaml:"worker"`
	Audio    AudioConfig   `yaml:"audio"`
	UI       UIConfig      `yaml:"ui"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		LogFile:  "encodec-explorer.log",
		Decoder:  DecoderConfig{Kind: "tone"},
		Worker:   WorkerConfig{CacheSize: 64},
		Audio: AudioConfig{
			Backend:         "malgo",
			Channels:        audio.DefaultDeviceChannels,
			MinBufferFrames: 64,
			MaxBufferFrames: 8192,
			RebuildDebounce: 250 * time.Millisecond,
			Resampler:       "linear",
		},
		UI: UIConfig{
			FrameRate:    30,
			MaxFragments: 4,
			MaxLayers:    32,
			ExportDir:    "exports",
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at
// filePath (if it exists), a .env file (if it exists) and the environment,
// in that order of increasing precedence.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", filePath, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unsupported value %q", c.LogLevel)
	}
	if c.Worker.CacheSize < 0 {
		return fmt.Errorf("worker.cache_size: must be >= 0, got %d", c.Worker.CacheSize)
	}

	a := c.Audio
	switch a.Backend {
	case "malgo", "oto", "headless":
	default:
		return fmt.Errorf("audio.backend: unsupported value %q", a.Backend)
	}
	if a.SampleRate < 0 {
		return fmt.Errorf("audio.sample_rate: must be >= 0, got %d", a.SampleRate)
	}
	if a.Channels < 1 {
		return fmt.Errorf("audio.channels: must be >= 1, got %d", a.Channels)
	}
	if a.MinBufferFrames < 1 || a.MaxBufferFrames < a.MinBufferFrames {
		return fmt.Errorf("audio: buffer range [%d, %d] is invalid", a.MinBufferFrames, a.MaxBufferFrames)
	}
	if a.BufferFrames < 0 {
		return fmt.Errorf("audio.buffer_frames: must be >= 0, got %d", a.BufferFrames)
	}
	if a.RebuildDebounce < 0 {
		return fmt.Errorf("audio.rebuild_debounce: must be >= 0, got %s", a.RebuildDebounce)
	}

	u := c.UI
	if u.FrameRate < 1 || u.FrameRate > 240 {
		return fmt.Errorf("ui.frame_rate: must be in [1, 240], got %d", u.FrameRate)
	}
	if u.MaxFragments < 1 {
		return fmt.Errorf("ui.max_fragments: must be >= 1, got %d", u.MaxFragments)
	}
	if u.MaxLayers < 1 || u.MaxLayers > 32 {
		return fmt.Errorf("ui.max_layers: must be in [1, 32], got %d", u.MaxLayers)
	}
	return nil
}
