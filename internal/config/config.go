// pattern: Imperative Shell

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"projscan/internal/discovery"
	"projscan/internal/ignore"
	"projscan/internal/signals"
)

// Config is the on-disk configuration. Keys missing from the YAML file keep
// their DefaultConfig values; lists present in the file replace the defaults.
type Config struct {
	ScanPaths     []string            `yaml:"scan_paths"`
	MaxDepth      int                 `yaml:"max_depth"`
	Theme         string              `yaml:"theme"`
	LogLevel      string              `yaml:"log_level"`
	CacheDir      string              `yaml:"cache_dir"`
	GitInsights   bool                `yaml:"git_insights"`
	FanOut        int                 `yaml:"fan_out"`
	RootDetection RootDetectionConfig `yaml:"root_detection"`
	Ignore        IgnoreConfig        `yaml:"ignore"`
	DenyPaths     []string            `yaml:"deny_paths"`
}

type RootDetectionConfig struct {
	Manifests       []string `yaml:"manifests"`
	Lockfiles       []string `yaml:"lockfiles"`
	MonorepoMarkers []string `yaml:"monorepo_markers"`
	CodeExtensions  []string `yaml:"code_extensions"`
	Indicators      []string `yaml:"indicators"`
	NoiseDirs       []string `yaml:"noise_dirs"`
	SourceDirs      []string `yaml:"source_dirs"`
	MinCodeFiles    int      `yaml:"min_code_files"`
	LockfilesStrong bool     `yaml:"lockfiles_strong"`
	StopAtVCSRoot   bool     `yaml:"stop_at_vcs_root"`
	Threshold       int      `yaml:"threshold"`
	NestedPackages  string   `yaml:"nested_packages"`
}

type IgnoreConfig struct {
	Patterns       []string `yaml:"patterns"`
	Directories    []string `yaml:"directories"`
	Projects       []string `yaml:"projects"`
	UseIgnoreFiles bool     `yaml:"use_ignore_files"`
	IgnoreFileName string   `yaml:"ignore_file_name"`
}

func DefaultConfig() Config {
	sig := signals.DefaultConfig()
	ign := ignore.DefaultConfig()
	return Config{
		MaxDepth: 5,
		Theme:    "mocha",
		LogLevel: "info",
		FanOut:   discovery.DefaultFanOut,
		RootDetection: RootDetectionConfig{
			Manifests:       sig.Manifests,
			Lockfiles:       sig.Lockfiles,
			MonorepoMarkers: sig.MonorepoMarkers,
			CodeExtensions:  sig.CodeExtensions,
			Indicators:      sig.Indicators,
			NoiseDirs:       sig.NoiseDirs,
			SourceDirs:      sig.SourceDirs,
			MinCodeFiles:    sig.MinCodeFiles,
			LockfilesStrong: sig.LockfilesStrong,
			StopAtVCSRoot:   sig.StopAtVCSRoot,
			Threshold:       sig.Threshold,
			NestedPackages:  string(sig.NestedPackages),
		},
		Ignore: IgnoreConfig{
			Patterns:       ign.Patterns,
			Directories:    ign.Directories,
			Projects:       ign.Projects,
			UseIgnoreFiles: ign.UseIgnoreFiles,
			IgnoreFileName: ign.IgnoreFileName,
		},
		DenyPaths: []string{"/.Trash", "/Library/Caches"},
	}
}

func Load() (Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFromDir loads config.yaml from an explicit config directory.
func LoadFromDir(dir string) (Config, error) {
	return LoadFrom(filepath.Join(dir, "config.yaml"))
}

func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", configPath, err)
	}

	if cfg.Theme == "" {
		cfg.Theme = "mocha"
	}
	if cfg.Ignore.IgnoreFileName == "" {
		cfg.Ignore.IgnoreFileName = ignore.DefaultIgnoreFileName
	}

	return cfg, cfg.Validate()
}

// Validate reports settings the scanner cannot work with.
func (c *Config) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.RootDetection.Threshold <= 0 {
		return fmt.Errorf("root_detection.threshold must be positive, got %d", c.RootDetection.Threshold)
	}
	if c.FanOut < 0 {
		return fmt.Errorf("fan_out must not be negative, got %d", c.FanOut)
	}
	if _, err := signals.ParseNestedPolicy(c.RootDetection.NestedPackages); err != nil {
		return fmt.Errorf("root_detection.nested_packages: %w", err)
	}
	return nil
}

// SignalsConfig converts the root detection section for the scorer.
func (c *Config) SignalsConfig() signals.Config {
	rd := c.RootDetection
	sig := signals.DefaultConfig()
	sig.Manifests = rd.Manifests
	sig.Lockfiles = rd.Lockfiles
	sig.MonorepoMarkers = rd.MonorepoMarkers
	sig.CodeExtensions = rd.CodeExtensions
	sig.Indicators = rd.Indicators
	sig.NoiseDirs = rd.NoiseDirs
	sig.SourceDirs = rd.SourceDirs
	sig.MinCodeFiles = rd.MinCodeFiles
	sig.LockfilesStrong = rd.LockfilesStrong
	sig.StopAtVCSRoot = rd.StopAtVCSRoot
	if rd.Threshold > 0 {
		sig.Threshold = rd.Threshold
	}
	if policy, err := signals.ParseNestedPolicy(rd.NestedPackages); err == nil {
		sig.NestedPackages = policy
	}
	return sig
}

// IgnoreConfig converts the ignore section for the matcher.
func (c *Config) IgnoreConfig() ignore.Config {
	return ignore.Config{
		Patterns:       c.Ignore.Patterns,
		Directories:    c.Ignore.Directories,
		Projects:       c.Ignore.Projects,
		UseIgnoreFiles: c.Ignore.UseIgnoreFiles,
		IgnoreFileName: c.Ignore.IgnoreFileName,
	}
}

// ScanOptions builds scanner options. legacyIgnore holds extra directory
// basenames supplied on the command line.
func (c *Config) ScanOptions(maxDepth int, legacyIgnore []string) discovery.Options {
	if maxDepth <= 0 {
		maxDepth = c.MaxDepth
	}
	return discovery.Options{
		MaxDepth:     maxDepth,
		LegacyIgnore: legacyIgnore,
		Signals:      c.SignalsConfig(),
		Ignore:       c.IgnoreConfig(),
		DenyPaths:    c.DenyPaths,
		FanOut:       c.FanOut,
	}
}

// ResolveScanPaths expands ~ and makes every scan path absolute.
func (c *Config) ResolveScanPaths() []string {
	resolved := make([]string, 0, len(c.ScanPaths))
	for _, p := range c.ScanPaths {
		resolved = append(resolved, ExpandPath(p))
	}
	return resolved
}

// ResolveCacheDir returns the directory holding per-project cache records.
func (c *Config) ResolveCacheDir() string {
	if c.CacheDir != "" {
		return ExpandPath(c.CacheDir)
	}
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "projscan", "projects")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "projscan", "projects")
	}
	return filepath.Join(home, ".cache", "projscan", "projects")
}

// ResolveLogPath returns the rotating log file location.
func ResolveLogPath() string {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "projscan", "projscan.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".local", "state", "projscan", "projscan.log")
	}
	return filepath.Join(home, ".local", "state", "projscan", "projscan.log")
}

// ExpandPath expands a leading ~ and returns an absolute path when possible.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Path returns the config file location used by Load.
func Path() string {
	return getConfigPath()
}

func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "projscan", "config.yaml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "projscan", "config.yaml")
	}

	return filepath.Join(home, ".config", "projscan", "config.yaml")
}
