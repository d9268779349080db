// Package config loads the server and client settings from TOML files.
//
// File values overlay the Default* settings, and the BSCP_LOG_LEVEL
// environment variable overrides the log level of either. Command line
// flags are applied by the binaries after loading.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pion/logging"

	"github.com/Agrael11/BSCP/pkg/crypto"
	"github.com/Agrael11/BSCP/pkg/diag"
	"github.com/Agrael11/BSCP/pkg/discovery"
	"github.com/Agrael11/BSCP/pkg/session"
	"github.com/Agrael11/BSCP/pkg/transport"
	"github.com/Agrael11/BSCP/pkg/wire"
)

// EnvLogLevel overrides Log.Level when set.
const EnvLogLevel = "BSCP_LOG_LEVEL"

// Errors returned by Validate and the loaders.
var (
	ErrInvalidListen  = errors.New("config: listen address is required")
	ErrInvalidAddress = errors.New("config: server address is required unless browsing")
	ErrInvalidRSABits = errors.New("config: rsa_bits is below the minimum")
	ErrInvalidWorkers = errors.New("config: workers must be positive")
	ErrInvalidTimeout = errors.New("config: browse_timeout must be positive")
	ErrUnknownKey     = errors.New("config: unknown key")
)

// Log holds console logging settings.
type Log struct {
	Level     string `toml:"level"`
	NoColor   bool   `toml:"no_color"`
	Timestamp bool   `toml:"timestamp"`
}

// DefaultLog returns the default logging settings.
func DefaultLog() Log {
	return Log{Level: "info"}
}

// Validate checks the log level.
func (l Log) Validate() error {
	_, err := diag.ParseLevel(l.Level)
	return err
}

// Factory returns a console LoggerFactory writing to out.
func (l Log) Factory(out io.Writer) (logging.LoggerFactory, error) {
	level, err := diag.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	return diag.NewConsoleFactory(diag.ConsoleConfig{
		Level:     level,
		Out:       out,
		NoColor:   l.NoColor,
		Timestamp: l.Timestamp,
	}), nil
}

// Server holds the server binary settings.
type Server struct {
	// Listen is the TCP listen address.
	Listen string `toml:"listen"`

	// Version is the accepted protocol version.
	Version uint16 `toml:"version"`

	// RSABits is the RSA modulus size for protocol 2.
	RSABits int `toml:"rsa_bits"`

	// Workers bounds the concurrently served connections.
	Workers int `toml:"workers"`

	// Advertise publishes the server over mDNS.
	Advertise bool `toml:"advertise"`

	// Instance is the mDNS instance name. Empty selects the host name.
	Instance string `toml:"instance"`

	// MetricsListen serves /metrics on this address. Empty disables it.
	MetricsListen string `toml:"metrics_listen"`

	Log Log `toml:"log"`
}

// DefaultServer returns the default server settings.
func DefaultServer() Server {
	return Server{
		Listen:  fmt.Sprintf(":%d", discovery.DefaultPort),
		Version: uint16(session.DefaultVersion),
		RSABits: crypto.DefaultRSABits,
		Workers: transport.DefaultWorkers,
		Log:     DefaultLog(),
	}
}

// Validate checks the server settings.
func (s Server) Validate() error {
	if strings.TrimSpace(s.Listen) == "" {
		return ErrInvalidListen
	}
	if err := session.CheckVersion(wire.Version(s.Version)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if s.RSABits < crypto.MinRSABits {
		return fmt.Errorf("%w: %d < %d", ErrInvalidRSABits, s.RSABits, crypto.MinRSABits)
	}
	if s.Workers <= 0 {
		return ErrInvalidWorkers
	}
	return s.Log.Validate()
}

// Client holds the client binary settings.
type Client struct {
	// Address is the server host:port.
	Address string `toml:"address"`

	// Version is the protocol version to speak.
	Version uint16 `toml:"version"`

	// RSABits is the RSA modulus size for protocol 2.
	RSABits int `toml:"rsa_bits"`

	// Browse finds the server over mDNS instead of dialing Address.
	Browse bool `toml:"browse"`

	// BrowseTimeout bounds the mDNS lookup.
	BrowseTimeout time.Duration `toml:"browse_timeout"`

	Log Log `toml:"log"`
}

// DefaultClient returns the default client settings.
func DefaultClient() Client {
	return Client{
		Address:       fmt.Sprintf("127.0.0.1:%d", discovery.DefaultPort),
		Version:       uint16(session.DefaultVersion),
		RSABits:       crypto.DefaultRSABits,
		BrowseTimeout: discovery.DefaultBrowseTimeout,
		Log:           DefaultLog(),
	}
}

// Validate checks the client settings.
func (c Client) Validate() error {
	if !c.Browse && strings.TrimSpace(c.Address) == "" {
		return ErrInvalidAddress
	}
	if err := session.CheckVersion(wire.Version(c.Version)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.RSABits < crypto.MinRSABits {
		return fmt.Errorf("%w: %d < %d", ErrInvalidRSABits, c.RSABits, crypto.MinRSABits)
	}
	if c.BrowseTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return c.Log.Validate()
}

// LoadServer reads path over DefaultServer. An empty path loads the defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if err := decodeFile(path, &cfg); err != nil {
		return Server{}, err
	}
	applyEnv(&cfg.Log)
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadClient reads path over DefaultClient. An empty path loads the defaults.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if err := decodeFile(path, &cfg); err != nil {
		return Client{}, err
	}
	applyEnv(&cfg.Log)
	if err := cfg.Validate(); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// decodeFile decodes path into out, leaving fields absent from the file
// untouched.
func decodeFile(path string, out any) error {
	if path == "" {
		return nil
	}
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w %q in %s", ErrUnknownKey, undecoded[0].String(), path)
	}
	return nil
}

func applyEnv(l *Log) {
	if level, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(level) != "" {
		l.Level = level
	}
}
