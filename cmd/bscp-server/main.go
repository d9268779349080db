// bscp-server accepts BSCP sessions over TCP and answers JSON ping requests.
//
// Usage:
//
//	bscp-server [port] [flags]
//
// The port argument overrides the listen address (default: 5050). Settings
// are read from the optional TOML file given with --config, then overridden
// by flags.
//
// Example:
//
//	bscp-server 5050 --version 2 --advertise --metrics-listen :9090
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Agrael11/BSCP/pkg/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bscp-server: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		flags      serverFlags
	)

	cmd := &cobra.Command{
		Use:   "bscp-server [port]",
		Short: "Serve BSCP sessions over TCP",
		Long: `bscp-server listens for BSCP sessions, negotiates the configured protocol
version, exchanges RSA/AES keys for protocol 2 and answers JSON ping
requests with pong.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer(configPath)
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			if len(args) == 1 {
				port, err := strconv.ParseUint(args[0], 10, 16)
				if err != nil {
					return fmt.Errorf("invalid port %q", args[0])
				}
				cfg.Listen = fmt.Sprintf(":%d", port)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	flags.register(cmd)
	return cmd
}

// serverFlags holds the flag values that override the config file.
type serverFlags struct {
	listen        string
	version       uint16
	rsaBits       int
	workers       int
	advertise     bool
	instance      string
	metricsListen string
	logLevel      string
	noColor       bool
	timestamp     bool
}

func (f *serverFlags) register(cmd *cobra.Command) {
	def := config.DefaultServer()
	fs := cmd.Flags()
	fs.StringVarP(&f.listen, "listen", "l", def.Listen, "TCP listen address")
	fs.Uint16Var(&f.version, "version", def.Version, "accepted protocol version (1 plain, 2 encrypted)")
	fs.IntVar(&f.rsaBits, "rsa-bits", def.RSABits, "RSA modulus size for protocol 2")
	fs.IntVar(&f.workers, "workers", def.Workers, "connections served concurrently")
	fs.BoolVar(&f.advertise, "advertise", def.Advertise, "advertise the server over mDNS")
	fs.StringVar(&f.instance, "instance", def.Instance, "mDNS instance name (default: host name)")
	fs.StringVar(&f.metricsListen, "metrics-listen", def.MetricsListen, "serve Prometheus metrics on this address")
	fs.StringVar(&f.logLevel, "log-level", def.Log.Level, "log level: disabled, error, warn, info, debug, trace")
	fs.BoolVar(&f.noColor, "no-color", def.Log.NoColor, "disable colored output")
	fs.BoolVar(&f.timestamp, "timestamp", def.Log.Timestamp, "prefix log lines with the time")
}

// apply copies every flag set on the command line into cfg.
func (f *serverFlags) apply(cmd *cobra.Command, cfg *config.Server) {
	changed := cmd.Flags().Changed
	if changed("listen") {
		cfg.Listen = f.listen
	}
	if changed("version") {
		cfg.Version = f.version
	}
	if changed("rsa-bits") {
		cfg.RSABits = f.rsaBits
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("advertise") {
		cfg.Advertise = f.advertise
	}
	if changed("instance") {
		cfg.Instance = f.instance
	}
	if changed("metrics-listen") {
		cfg.MetricsListen = f.metricsListen
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("no-color") {
		cfg.Log.NoColor = f.noColor
	}
	if changed("timestamp") {
		cfg.Log.Timestamp = f.timestamp
	}
}
