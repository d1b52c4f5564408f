package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tagmap/internal/tag"
	"tagmap/pkg/utils"
)

// Config contains the program configuration
type Config struct {
	Verbose         bool     `yaml:"verbose"`
	ParallelJobs    int      `yaml:"parallel_jobs"`
	DefaultMimeType string   `yaml:"default_mime_type"`
	Extensions      []string `yaml:"extensions"`
	ListenAddr      string   `yaml:"listen_addr"`
	LogDir          string   `yaml:"log_dir"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Verbose:         false,
		ParallelJobs:    4,
		DefaultMimeType: string(tag.MimeJPEG),
		Extensions:      append([]string(nil), utils.DefaultExtensions...),
		ListenAddr:      ":8080",
		LogDir:          GetDefaultLogPath(),
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.LogDir = ExpandHome(cfg.LogDir)
	for i, ext := range cfg.Extensions {
		cfg.Extensions[i] = utils.NormalizeExt(ext)
	}

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./tagmap.yaml",
		"./tagmap.yml",
		filepath.Join(home, ".config", "tagmap", "config.yaml"),
		filepath.Join(home, ".config", "tagmap", "config.yml"),
		filepath.Join(home, ".tagmap.yaml"),
		filepath.Join(home, ".tagmap.yml"),
	}

	for _, path := range locations {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "tagmap", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "tagmap", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// DefaultMime returns the configured fallback picture MIME type.
func (c *Config) DefaultMime() tag.MimeType {
	return tag.ParseMimeType(c.DefaultMimeType)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ParallelJobs < 1 {
		return fmt.Errorf("parallel jobs must be at least 1, got %d", c.ParallelJobs)
	}
	if c.ParallelJobs > 16 {
		return fmt.Errorf("parallel jobs cannot exceed 16, got %d", c.ParallelJobs)
	}

	if !c.DefaultMime().Known() {
		return fmt.Errorf("unsupported default_mime_type '%s', valid types: image/jpeg, image/png, image/gif, image/tiff, image/bmp", c.DefaultMimeType)
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions cannot be empty")
	}
	for _, ext := range c.Extensions {
		if utils.NormalizeExt(ext) == "" {
			return fmt.Errorf("extensions cannot contain an empty entry")
		}
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	if !strings.Contains(c.ListenAddr, ":") {
		return fmt.Errorf("listen_addr must be host:port or :port, got %q", c.ListenAddr)
	}

	return nil
}
