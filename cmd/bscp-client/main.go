// bscp-client connects to a BSCP server, switches the session to JSON mode,
// sends a ping request and checks that the server answers with pong.
//
// Usage:
//
//	bscp-client [address] [flags]
//
// Example:
//
//	bscp-client 127.0.0.1:5050 --version 2
//	bscp-client --browse
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Agrael11/BSCP/pkg/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bscp-client: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		flags      clientFlags
	)

	cmd := &cobra.Command{
		Use:           "bscp-client [address]",
		Short:         "Ping a BSCP server",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient(configPath)
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			if len(args) == 1 {
				cfg.Address = args[0]
				cfg.Browse = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			factory, err := cfg.Log.Factory(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rtt, err := ping(ctx, cfg, factory, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pong in %s\n", rtt.Round(time.Microsecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	flags.register(cmd)
	return cmd
}

// clientFlags holds the flag values that override the config file.
type clientFlags struct {
	address       string
	version       uint16
	rsaBits       int
	browse        bool
	browseTimeout time.Duration
	logLevel      string
	noColor       bool
	timestamp     bool
}

func (f *clientFlags) register(cmd *cobra.Command) {
	def := config.DefaultClient()
	fs := cmd.Flags()
	fs.StringVarP(&f.address, "address", "a", def.Address, "server host:port")
	fs.Uint16Var(&f.version, "version", def.Version, "protocol version (1 plain, 2 encrypted)")
	fs.IntVar(&f.rsaBits, "rsa-bits", def.RSABits, "RSA modulus size for protocol 2")
	fs.BoolVarP(&f.browse, "browse", "b", def.Browse, "find the server over mDNS")
	fs.DurationVar(&f.browseTimeout, "browse-timeout", def.BrowseTimeout, "mDNS lookup timeout")
	fs.StringVar(&f.logLevel, "log-level", def.Log.Level, "log level: disabled, error, warn, info, debug, trace")
	fs.BoolVar(&f.noColor, "no-color", def.Log.NoColor, "disable colored output")
	fs.BoolVar(&f.timestamp, "timestamp", def.Log.Timestamp, "prefix log lines with the time")
}

func (f *clientFlags) apply(cmd *cobra.Command, cfg *config.Client) {
	changed := cmd.Flags().Changed
	if changed("address") {
		cfg.Address = f.address
	}
	if changed("version") {
		cfg.Version = f.version
	}
	if changed("rsa-bits") {
		cfg.RSABits = f.rsaBits
	}
	if changed("browse") {
		cfg.Browse = f.browse
	}
	if changed("browse-timeout") {
		cfg.BrowseTimeout = f.browseTimeout
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
