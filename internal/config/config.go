// Package config loads drag-warp settings from YAML, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"drag-warp/internal/inpaint"
	"drag-warp/internal/refine"
	"drag-warp/internal/warp"

	"github.com/spf13/viper"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Warp    WarpConfig    `mapstructure:"warp"`
	Refine  RefineConfig  `mapstructure:"refine"`
	Inpaint InpaintConfig `mapstructure:"inpaint"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // "release" or anything else for development output
}

type WarpConfig struct {
	KernelSize         int     `mapstructure:"kernel_size"`
	Neighbors          int     `mapstructure:"neighbors"`
	MaxReferencePoints int     `mapstructure:"max_reference_points"`
	Epsilon            float64 `mapstructure:"epsilon"`
	MatchThreshold     float64 `mapstructure:"match_threshold"`
	Workers            int     `mapstructure:"workers"`
}

type RefineConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	KernelSize int  `mapstructure:"kernel_size"`
	Iterations int  `mapstructure:"iterations"`
	MaxPoints  int  `mapstructure:"max_points"`
}

type InpaintConfig struct {
	Prompt        string  `mapstructure:"prompt"`
	BlurSize      int     `mapstructure:"blur_size"`
	Steps         int     `mapstructure:"steps"`
	GuidanceScale float64 `mapstructure:"guidance_scale"`
	Strength      float64 `mapstructure:"strength"`
}

// Load reads a YAML config file on top of the defaults. Environment
// variables prefixed DRAGWARP_ (e.g. DRAGWARP_WARP_KERNEL_SIZE) override both.
// An empty path loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	// Defaults always decode.
	_ = newViperDefaults().Unmarshal(&cfg)
	return &cfg
}

func newViper() *viper.Viper {
	v := newViperDefaults()
	v.SetEnvPrefix("DRAGWARP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func newViperDefaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.mode", "debug")

	v.SetDefault("warp.kernel_size", 5)
	v.SetDefault("warp.neighbors", warp.DefaultNeighbors)
	v.SetDefault("warp.max_reference_points", warp.DefaultMaxReferencePoints)
	v.SetDefault("warp.epsilon", warp.DefaultEpsilon)
	v.SetDefault("warp.match_threshold", warp.DefaultMatchThreshold)
	v.SetDefault("warp.workers", 0)

	v.SetDefault("refine.enabled", false)
	v.SetDefault("refine.kernel_size", 21)
	v.SetDefault("refine.iterations", 3)
	v.SetDefault("refine.max_points", 128)

	v.SetDefault("inpaint.prompt", "")
	v.SetDefault("inpaint.blur_size", 5)
	v.SetDefault("inpaint.steps", 8)
	v.SetDefault("inpaint.guidance_scale", 1.0)
	v.SetDefault("inpaint.strength", 1.0)
}

// Validate rejects settings the warp cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Warp.Neighbors < 1 {
		errs = append(errs, fmt.Errorf("warp.neighbors must be >= 1, got %d", c.Warp.Neighbors))
	}
	if c.Warp.MaxReferencePoints < 1 {
		errs = append(errs, fmt.Errorf("warp.max_reference_points must be >= 1, got %d", c.Warp.MaxReferencePoints))
	}
	if c.Warp.Epsilon <= 0 {
		errs = append(errs, fmt.Errorf("warp.epsilon must be > 0, got %g", c.Warp.Epsilon))
	}
	if c.Warp.MatchThreshold <= 0 {
		errs = append(errs, fmt.Errorf("warp.match_threshold must be > 0, got %g", c.Warp.MatchThreshold))
	}
	if c.Warp.Workers < 0 {
		errs = append(errs, fmt.Errorf("warp.workers must be >= 0, got %d", c.Warp.Workers))
	}
	if c.Refine.MaxPoints < 1 {
		errs = append(errs, fmt.Errorf("refine.max_points must be >= 1, got %d", c.Refine.MaxPoints))
	}
	if c.Inpaint.BlurSize < 1 {
		errs = append(errs, fmt.Errorf("inpaint.blur_size must be >= 1, got %d", c.Inpaint.BlurSize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// WarpOptions converts the warp section into warp.Options.
func (c *Config) WarpOptions() warp.Options {
	return warp.Options{
		Interpolator: warp.Interpolator{
			Neighbors:          c.Warp.Neighbors,
			MaxReferencePoints: c.Warp.MaxReferencePoints,
			Epsilon:            c.Warp.Epsilon,
		},
		MatchThreshold: c.Warp.MatchThreshold,
		Workers:        c.Warp.Workers,
	}
}

// RefineOptions converts the refine section into refine.GrabCutOptions.
func (c *Config) RefineOptions() refine.GrabCutOptions {
	return refine.GrabCutOptions{
		Iterations: c.Refine.Iterations,
		MaxPoints:  c.Refine.MaxPoints,
	}
}

// FillParams converts the inpaint section into inpaint.Params.
func (c *Config) FillParams() inpaint.Params {
	return inpaint.Params{
		Prompt:        c.Inpaint.Prompt,
		Steps:         c.Inpaint.Steps,
		GuidanceScale: c.Inpaint.GuidanceScale,
		Strength:      c.Inpaint.Strength,
	}
}
