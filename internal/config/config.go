// Package config handles shardtool configuration loading and management.
package config

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shatter/pkg/breakable"
)

// Config holds all tool settings.
type Config struct {
	Fracture FractureConfig `yaml:"fracture"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// FractureConfig holds compound construction and query settings.
type FractureConfig struct {
	BreakImpulse     float32 `yaml:"break_impulse"`
	CollisionPadding float32 `yaml:"collision_padding"`
	HullTolerance    float64 `yaml:"hull_tolerance"`
	WeldTolerance    float32 `yaml:"weld_tolerance"`
	MaxTraversal     int     `yaml:"max_traversal"`
	AnchorContacts   int     `yaml:"anchor_contacts"`
	Seed             int64   `yaml:"seed"` // Voronoi seed generator for shatter recipes
}

// OutputConfig holds report settings.
type OutputConfig struct {
	Format  string `yaml:"format"` // "text" or "yaml"
	Verbose bool   `yaml:"verbose"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Fracture: FractureConfig{
			BreakImpulse:     breakable.DefaultBreakImpulse,
			CollisionPadding: 0,
			HullTolerance:    breakable.DefaultHullTolerance,
			WeldTolerance:    breakable.DefaultWeldTolerance,
			MaxTraversal:     breakable.DefaultMaxTraversal,
			AnchorContacts:   breakable.DefaultAnchorContacts,
			Seed:             1,
		},
		Output: OutputConfig{
			Format:  "text",
			Verbose: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// FractureOptions converts the fracture section into compound options.
func (c *Config) FractureOptions(log *zap.Logger) breakable.Options {
	return breakable.Options{
		Logger:           log,
		CollisionPadding: c.Fracture.CollisionPadding,
		HullTolerance:    c.Fracture.HullTolerance,
		WeldTolerance:    c.Fracture.WeldTolerance,
		BreakImpulse:     c.Fracture.BreakImpulse,
		MaxTraversal:     c.Fracture.MaxTraversal,
		AnchorContacts:   c.Fracture.AnchorContacts,
	}
}
