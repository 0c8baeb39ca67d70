package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/reconcile"
	"github.com/vango-dev/vtree/pkg/snapshot"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.KeyPolicy != "first-match" {
		t.Errorf("KeyPolicy = %q, want %q", cfg.KeyPolicy, "first-match")
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if cfg.Live.Address != DefaultAddress {
		t.Errorf("Live.Address = %q, want %q", cfg.Live.Address, DefaultAddress)
	}
	if cfg.Snapshot.Dir != DefaultSnapshotDir {
		t.Errorf("Snapshot.Dir = %q, want %q", cfg.Snapshot.Dir, DefaultSnapshotDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if errors.CodeOf(err) != "C001" {
		t.Errorf("Load(missing) code = %q, want C001", errors.CodeOf(err))
	}

	configJSON := `{
  "logLevel": "debug",
  "keyPolicy": "strict",
  "live": {
    "address": "0.0.0.0:9000"
  },
  "snapshot": {
    "s3": {"bucket": "snaps", "prefix": "ci/"}
  }
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.KeyPolicyValue() != reconcile.KeysStrict {
		t.Errorf("KeyPolicyValue() = %v, want %v", cfg.KeyPolicyValue(), reconcile.KeysStrict)
	}
	if cfg.Live.Address != "0.0.0.0:9000" {
		t.Errorf("Live.Address = %q, want %q", cfg.Live.Address, "0.0.0.0:9000")
	}
	// Defaults fill what the file leaves out.
	if cfg.Live.ReadTimeout != DefaultReadTimeout {
		t.Errorf("Live.ReadTimeout = %q, want %q", cfg.Live.ReadTimeout, DefaultReadTimeout)
	}
	want := snapshot.S3Config{Bucket: "snaps", Prefix: "ci/"}
	if cfg.Snapshot.S3 != want {
		t.Errorf("Snapshot.S3 = %+v, want %+v", cfg.Snapshot.S3, want)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()

	configYAML := `logLevel: warn
metrics:
  namespace: ci
live:
  readTimeout: 3s
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("SlogLevel() = %v, want %v", cfg.SlogLevel(), slog.LevelWarn)
	}
	if cfg.Metrics.Namespace != "ci" {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, "ci")
	}
	if cfg.ReadTimeout() != 3*time.Second {
		t.Errorf("ReadTimeout() = %v, want 3s", cfg.ReadTimeout())
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	tmpDir := t.TempDir()

	os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(`{"logLevel":"error"}`), 0644)
	os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte("logLevel: debug\n"), 0644)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "error")
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"logLevel": `), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if errors.CodeOf(err) != "C001" {
		t.Errorf("LoadFile(invalid) code = %q, want C001", errors.CodeOf(err))
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.LogLevel = "debug"
			cfg.Snapshot.S3.Bucket = "snaps"

			path := filepath.Join(tmpDir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if loaded.LogLevel != "debug" {
				t.Errorf("LogLevel = %q, want %q", loaded.LogLevel, "debug")
			}
			if loaded.Snapshot.S3.Bucket != "snaps" {
				t.Errorf("Snapshot.S3.Bucket = %q, want %q", loaded.Snapshot.S3.Bucket, "snaps")
			}
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save() without path should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "C002"},
		{"bad key policy", func(c *Config) { c.KeyPolicy = "lenient" }, "C002"},
		{"bad timeout", func(c *Config) { c.Live.ReadTimeout = "soon" }, "C002"},
		{"negative timeout", func(c *Config) { c.Live.ReadTimeout = "-1s" }, "C002"},
		{"s3 without bucket", func(c *Config) { c.Snapshot.S3.Region = "eu-west-1" }, "C003"},
		{"s3 with bucket", func(c *Config) {
			c.Snapshot.S3 = snapshot.S3Config{Bucket: "b", Region: "eu-west-1"}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if got := errors.CodeOf(err); got != tt.code {
				t.Errorf("Validate() code = %q, want %q (err = %v)", got, tt.code, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLogLevel: "debug",
		EnvAddress:  ":8081",
	}

	cfg := New()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Live.Address != ":8081" {
		t.Errorf("Live.Address = %q, want %q", cfg.Live.Address, ":8081")
	}

	cfg = New()
	cfg.ApplyEnv(func(string) string { return "" })
	if cfg.Live.Address != DefaultAddress {
		t.Errorf("Live.Address = %q, want %q", cfg.Live.Address, DefaultAddress)
	}
}

func TestSnapshotPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"snapshot":{"dir":"snaps"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cfg.SnapshotPath(), filepath.Join(tmpDir, "snaps"); got != want {
		t.Errorf("SnapshotPath() = %q, want %q", got, want)
	}

	cfg.Snapshot.Dir = "/abs/snaps"
	if got := cfg.SnapshotPath(); got != "/abs/snaps" {
		t.Errorf("SnapshotPath() = %q, want /abs/snaps", got)
	}

	cfg.Snapshot.Dir = "snaps"
	store, err := cfg.OpenSnapshotStore()
	if err != nil {
		t.Fatalf("OpenSnapshotStore() error = %v", err)
	}
	if _, ok := store.(*snapshot.FileStore); !ok {
		t.Errorf("OpenSnapshotStore() = %T, want *snapshot.FileStore", store)
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()

	// Create nested directories
	nested := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	// No config file yet
	if _, err := FindProjectRoot(nested); err == nil {
		t.Error("Expected error when no config exists")
	}

	// Create config at root
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot() error = %v", err)
	}

	// Resolve symlinks for comparison (macOS /tmp is a symlink)
	wantRoot, _ := filepath.EvalSymlinks(tmpDir)
	gotRoot, _ := filepath.EvalSymlinks(root)
	if gotRoot != wantRoot {
		t.Errorf("FindProjectRoot() = %q, want %q", gotRoot, wantRoot)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(tmpDir) {
		t.Error("Exists() = true for empty dir")
	}

	os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("{}"), 0644)

	if !Exists(tmpDir) {
		t.Error("Exists() = false after creating config")
	}
}
