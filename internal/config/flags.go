package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagPadding      = flag.Float64("padding", -1, "Collision padding around piece bounds")
	flagBreakImpulse = flag.Float64("break-impulse", 0, "Default break impulse")
	flagMaxTraversal = flag.Int("max-traversal", 0, "Traversal stack and queue limit")
	flagSeed         = flag.Int64("seed", 0, "Shatter seed")
	flagFormat       = flag.String("format", "", "Report format (text, yaml)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Output.Verbose = true
	}
	if *flagPadding >= 0 {
		cfg.Fracture.CollisionPadding = float32(*flagPadding)
	}
	if *flagBreakImpulse > 0 {
		cfg.Fracture.BreakImpulse = float32(*flagBreakImpulse)
	}
	if *flagMaxTraversal > 0 {
		cfg.Fracture.MaxTraversal = *flagMaxTraversal
	}
	if *flagSeed != 0 {
		cfg.Fracture.Seed = *flagSeed
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
}
