package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/Agrael11/BSCP/pkg/config"
	"github.com/Agrael11/BSCP/pkg/discovery"
	"github.com/Agrael11/BSCP/pkg/request"
	"github.com/Agrael11/BSCP/pkg/session"
	"github.com/Agrael11/BSCP/pkg/wire"
)

// ErrUnexpectedResponse is returned when the server answers ping with
// anything but pong.
var ErrUnexpectedResponse = errors.New("bscp-client: unexpected response")

const pingRequest = `{"requestType":"ping"}`

// resolve returns the address to dial, browsing for it when configured.
func resolve(ctx context.Context, cfg config.Client, log logging.LeveledLogger, mdns discovery.MDNSResolver) (string, error) {
	if !cfg.Browse {
		return cfg.Address, nil
	}
	resolver, err := discovery.NewResolver(discovery.ResolverConfig{
		MDNSResolver:  mdns,
		BrowseTimeout: cfg.BrowseTimeout,
	})
	if err != nil {
		return "", err
	}
	srv, err := resolver.Find(ctx, cfg.Version)
	if err != nil {
		return "", fmt.Errorf("browse %s: %w", discovery.ServiceType, err)
	}
	log.Infof("found %q at %s", srv.InstanceName, srv.Address())
	return srv.Address(), nil
}

// ping runs one session: connect, ping, check pong, goodbye. It returns the
// request round trip time.
func ping(ctx context.Context, cfg config.Client, factory logging.LoggerFactory, mdns discovery.MDNSResolver) (time.Duration, error) {
	log := factory.NewLogger("bscp-client")

	addr, err := resolve(ctx, cfg, log, mdns)
	if err != nil {
		return 0, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	// Unblock the session if ctx ends mid-exchange.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := session.NewClient(conn, session.ClientConfig{
		Version:       wire.Version(cfg.Version),
		RSABits:       cfg.RSABits,
		LoggerFactory: factory,
		ID:            uuid.NewString(),
	})
	if err != nil {
		return 0, err
	}
	if err := client.Connect(); err != nil {
		return 0, err
	}

	start := time.Now()
	text, err := client.Request(pingRequest)
	if err != nil {
		return 0, err
	}
	rtt := time.Since(start)

	var resp request.Response
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnexpectedResponse, text)
	}
	if resp.ResponseType != request.TypePong {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedResponse, resp.ResponseType)
	}

	if err := client.Goodbye(); err != nil {
		return rtt, err
	}
	return rtt, nil
}
