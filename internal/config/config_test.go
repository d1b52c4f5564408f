package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ParallelJobs:    4,
			DefaultMimeType: "image/jpeg",
			Extensions:      []string{".mp3", ".flac"},
			ListenAddr:      ":8080",
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "defaults are valid",
			modify: func(c *Config) { *c = DefaultConfig() },
		},
		{
			name:    "parallel jobs 0",
			modify:  func(c *Config) { c.ParallelJobs = 0 },
			wantErr: true,
		},
		{
			name:    "parallel jobs 17",
			modify:  func(c *Config) { c.ParallelJobs = 17 },
			wantErr: true,
		},
		{
			name:   "parallel jobs 16",
			modify: func(c *Config) { c.ParallelJobs = 16 },
		},
		{
			name:   "short mime type",
			modify: func(c *Config) { c.DefaultMimeType = "png" },
		},
		{
			name:    "unknown mime type",
			modify:  func(c *Config) { c.DefaultMimeType = "image/webp" },
			wantErr: true,
		},
		{
			name:    "empty mime type",
			modify:  func(c *Config) { c.DefaultMimeType = "" },
			wantErr: true,
		},
		{
			name:    "no extensions",
			modify:  func(c *Config) { c.Extensions = nil },
			wantErr: true,
		},
		{
			name:    "blank extension",
			modify:  func(c *Config) { c.Extensions = []string{".mp3", " "} },
			wantErr: true,
		},
		{
			name:    "empty listen addr",
			modify:  func(c *Config) { c.ListenAddr = "" },
			wantErr: true,
		},
		{
			name:    "listen addr without port",
			modify:  func(c *Config) { c.ListenAddr = "localhost" },
			wantErr: true,
		},
		{
			name:   "listen addr with host",
			modify: func(c *Config) { c.ListenAddr = "127.0.0.1:9000" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `parallel_jobs: 8
default_mime_type: image/png
extensions: [mp3, .FLAC]
listen_addr: 127.0.0.1:9000
log_dir: ~/logs
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}

	if cfg.ParallelJobs != 8 {
		t.Errorf("ParallelJobs = %d, want 8", cfg.ParallelJobs)
	}
	if cfg.DefaultMimeType != "image/png" {
		t.Errorf("DefaultMimeType = %q, want %q", cfg.DefaultMimeType, "image/png")
	}
	if want := []string{".mp3", ".flac"}; !reflect.DeepEqual(cfg.Extensions, want) {
		t.Errorf("Extensions = %v, want %v", cfg.Extensions, want)
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, "127.0.0.1:9000")
	}
	if want := filepath.Join(homeDir(), "logs"); cfg.LogDir != want {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, want)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := LoadConfigFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfigFile() should return defaults for missing file, got error: %v", err)
	}
	if cfg.ParallelJobs != 4 {
		t.Errorf("expected default ParallelJobs=4, got %d", cfg.ParallelJobs)
	}
	if cfg.DefaultMimeType != "image/jpeg" {
		t.Errorf("expected default DefaultMimeType=image/jpeg, got %q", cfg.DefaultMimeType)
	}
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("parallel_jobs: [oops"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := DefaultConfig()
	want.ParallelJobs = 2

	if err := SaveConfigFile(want, path); err != nil {
		t.Fatalf("SaveConfigFile() error: %v", err)
	}
	got, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestExpandHome(t *testing.T) {
	home := homeDir()
	tests := []struct {
		input string
		want  string
	}{
		{"~/Music", filepath.Join(home, "Music")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~notslash", "~notslash"},
	}

	for _, tt := range tests {
		got := ExpandHome(tt.input)
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
