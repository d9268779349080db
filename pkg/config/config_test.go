package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Agrael11/BSCP/pkg/session"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bscp.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	if err := DefaultServer().Validate(); err != nil {
		t.Errorf("DefaultServer().Validate() error = %v", err)
	}
	if err := DefaultClient().Validate(); err != nil {
		t.Errorf("DefaultClient().Validate() error = %v", err)
	}
	if got := DefaultServer().Listen; got != ":5050" {
		t.Errorf("DefaultServer().Listen = %q, want :5050", got)
	}
}

func TestLoadServerEmptyPath(t *testing.T) {
	cfg, err := LoadServer("")
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg != DefaultServer() {
		t.Errorf("LoadServer(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadServerOverlay(t *testing.T) {
	path := writeFile(t, `
listen = ":6000"
version = 1
advertise = true

[log]
level = "debug"
timestamp = true
`)
	cfg, err := LoadServer(path)
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.Listen != ":6000" || cfg.Version != 1 || !cfg.Advertise {
		t.Errorf("LoadServer() = %+v", cfg)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Timestamp {
		t.Errorf("LoadServer() log = %+v", cfg.Log)
	}
	if cfg.Workers != DefaultServer().Workers || cfg.RSABits != DefaultServer().RSABits {
		t.Errorf("LoadServer() dropped defaults: %+v", cfg)
	}
}

func TestLoadClientDuration(t *testing.T) {
	path := writeFile(t, `
browse = true
address = ""
browse_timeout = "250ms"
`)
	cfg, err := LoadClient(path)
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if !cfg.Browse || cfg.BrowseTimeout != 250*time.Millisecond {
		t.Errorf("LoadClient() = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown key", `listen_addr = ":1"`, ErrUnknownKey},
		{"bad version", `version = 7`, session.ErrUnsupportedVersion},
		{"small key", `rsa_bits = 512`, ErrInvalidRSABits},
		{"no workers", `workers = 0`, ErrInvalidWorkers},
		{"no listen", `listen = " "`, ErrInvalidListen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadServer(writeFile(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadServer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadServer(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadServer(missing) succeeded")
	}
	if _, err := LoadServer(writeFile(t, `[log]
level = "loud"`)); err == nil {
		t.Error("LoadServer() accepted an unknown log level")
	}
}

func TestClientValidate(t *testing.T) {
	cfg := DefaultClient()
	cfg.Address = ""
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidAddress)
	}
	cfg.Browse = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with browse error = %v", err)
	}
	cfg.BrowseTimeout = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidTimeout) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidTimeout)
	}
}

func TestEnvLogLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "trace")
	cfg, err := LoadClient("")
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if cfg.Log.Level != "trace" {
		t.Errorf("Log.Level = %q, want trace", cfg.Log.Level)
	}
}

func TestLogFactory(t *testing.T) {
	var out bytes.Buffer
	factory, err := Log{Level: "warn", NoColor: true}.Factory(&out)
	if err != nil {
		t.Fatalf("Factory() error = %v", err)
	}
	log := factory.NewLogger("config")
	log.Info("hidden")
	log.Warn("shown")
	if s := out.String(); strings.Contains(s, "hidden") || !strings.Contains(s, "shown") {
		t.Errorf("console output = %q", s)
	}
}
