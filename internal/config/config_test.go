package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/midgard-shatter/pkg/breakable"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test fracture defaults
	if cfg.Fracture.BreakImpulse != breakable.DefaultBreakImpulse {
		t.Errorf("expected break impulse %d, got %f", breakable.DefaultBreakImpulse, cfg.Fracture.BreakImpulse)
	}
	if cfg.Fracture.CollisionPadding != 0 {
		t.Errorf("expected zero padding, got %f", cfg.Fracture.CollisionPadding)
	}
	if cfg.Fracture.MaxTraversal != breakable.DefaultMaxTraversal {
		t.Errorf("expected max traversal %d, got %d", breakable.DefaultMaxTraversal, cfg.Fracture.MaxTraversal)
	}
	if cfg.Fracture.Seed != 1 {
		t.Errorf("expected seed 1, got %d", cfg.Fracture.Seed)
	}

	// Test output defaults
	if cfg.Output.Format != "text" {
		t.Errorf("expected format 'text', got %s", cfg.Output.Format)
	}
	if cfg.Output.Verbose {
		t.Error("expected verbose to be false by default")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
fracture:
  break_impulse: 900
  collision_padding: 0.01
  hull_tolerance: 0.001
  max_traversal: 128
  anchor_contacts: 2
  seed: 42

output:
  format: "yaml"
  verbose: true

logging:
  level: "debug"
  log_file: "shard.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Fracture.BreakImpulse != 900 {
		t.Errorf("expected break impulse 900, got %f", cfg.Fracture.BreakImpulse)
	}
	if cfg.Fracture.CollisionPadding != 0.01 {
		t.Errorf("expected padding 0.01, got %f", cfg.Fracture.CollisionPadding)
	}
	if cfg.Fracture.HullTolerance != 0.001 {
		t.Errorf("expected hull tolerance 0.001, got %f", cfg.Fracture.HullTolerance)
	}
	if cfg.Fracture.MaxTraversal != 128 {
		t.Errorf("expected max traversal 128, got %d", cfg.Fracture.MaxTraversal)
	}
	if cfg.Fracture.AnchorContacts != 2 {
		t.Errorf("expected anchor contacts 2, got %d", cfg.Fracture.AnchorContacts)
	}
	if cfg.Fracture.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Fracture.Seed)
	}
	// Not in the file, so the default survives the merge.
	if cfg.Fracture.WeldTolerance != breakable.DefaultWeldTolerance {
		t.Errorf("expected default weld tolerance, got %g", cfg.Fracture.WeldTolerance)
	}

	if cfg.Output.Format != "yaml" {
		t.Errorf("expected format 'yaml', got %s", cfg.Output.Format)
	}
	if !cfg.Output.Verbose {
		t.Error("expected verbose to be true")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "shard.log" {
		t.Errorf("expected log file 'shard.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
fracture:
  max_traversal: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"yaml format", func(c *Config) { c.Output.Format = "yaml" }, false},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"negative padding", func(c *Config) { c.Fracture.CollisionPadding = -0.1 }, true},
		{"huge tolerance", func(c *Config) { c.Fracture.HullTolerance = 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFractureOptions(t *testing.T) {
	cfg := Default()
	cfg.Fracture.CollisionPadding = 0.02
	cfg.Fracture.AnchorContacts = 3

	opts := cfg.FractureOptions(nil)
	if opts.CollisionPadding != 0.02 {
		t.Errorf("expected padding 0.02, got %f", opts.CollisionPadding)
	}
	if opts.AnchorContacts != 3 {
		t.Errorf("expected anchor contacts 3, got %d", opts.AnchorContacts)
	}
	if opts.BreakImpulse != breakable.DefaultBreakImpulse {
		t.Errorf("expected default break impulse, got %f", opts.BreakImpulse)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "shardtool.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: yaml\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find shardtool.yaml in current directory")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Fracture.Seed = 7
	cfg.Output.Format = "yaml"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Fracture.Seed != 7 || loaded.Output.Format != "yaml" {
		t.Errorf("saved values lost: %+v", loaded)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if !cfg.Output.Verbose {
					t.Error("expected verbose output with debug flag")
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "padding flag",
			setup: func() {
				*flagPadding = 0.05
			},
			verify: func(cfg *Config) {
				if cfg.Fracture.CollisionPadding != 0.05 {
					t.Errorf("expected padding 0.05, got %f", cfg.Fracture.CollisionPadding)
				}
			},
			teardown: func() {
				*flagPadding = -1
			},
		},
		{
			name: "break impulse flag",
			setup: func() {
				*flagBreakImpulse = 10
			},
			verify: func(cfg *Config) {
				if cfg.Fracture.BreakImpulse != 10 {
					t.Errorf("expected break impulse 10, got %f", cfg.Fracture.BreakImpulse)
				}
			},
			teardown: func() {
				*flagBreakImpulse = 0
			},
		},
		{
			name: "traversal and seed flags",
			setup: func() {
				*flagMaxTraversal = 64
				*flagSeed = 99
			},
			verify: func(cfg *Config) {
				if cfg.Fracture.MaxTraversal != 64 {
					t.Errorf("expected max traversal 64, got %d", cfg.Fracture.MaxTraversal)
				}
				if cfg.Fracture.Seed != 99 {
					t.Errorf("expected seed 99, got %d", cfg.Fracture.Seed)
				}
			},
			teardown: func() {
				*flagMaxTraversal = 0
				*flagSeed = 0
			},
		},
		{
			name: "format flag",
			setup: func() {
				*flagFormat = "yaml"
			},
			verify: func(cfg *Config) {
				if cfg.Output.Format != "yaml" {
					t.Errorf("expected format 'yaml', got %s", cfg.Output.Format)
				}
			},
			teardown: func() {
				*flagFormat = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
fracture:
  max_traversal: 256
  anchor_contacts: 6
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagMaxTraversal = 512
	defer func() {
		*flagConfig = ""
		*flagMaxTraversal = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Max traversal should be from flag (512), not file (256)
	if cfg.Fracture.MaxTraversal != 512 {
		t.Errorf("expected max traversal 512 from flag, got %d", cfg.Fracture.MaxTraversal)
	}

	// Anchor contacts should be from file (6) since no flag override
	if cfg.Fracture.AnchorContacts != 6 {
		t.Errorf("expected anchor contacts 6 from file, got %d", cfg.Fracture.AnchorContacts)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: xml\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown output format")
	}
}
