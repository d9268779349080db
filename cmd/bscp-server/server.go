package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Agrael11/BSCP/pkg/config"
	"github.com/Agrael11/BSCP/pkg/discovery"
	"github.com/Agrael11/BSCP/pkg/metrics"
	"github.com/Agrael11/BSCP/pkg/request"
	"github.com/Agrael11/BSCP/pkg/session"
	"github.com/Agrael11/BSCP/pkg/transport"
	"github.com/Agrael11/BSCP/pkg/wire"
)

const shutdownTimeout = 5 * time.Second

// app wires the transport, sessions, discovery and metrics of one server
// process.
type app struct {
	cfg        config.Server
	log        logging.LeveledLogger
	tcp        *transport.TCP
	registry   *prometheus.Registry
	advertiser *discovery.Advertiser
	metricsSrv *http.Server
}

// newApp builds the server. Nothing is started until start is called.
func newApp(cfg config.Server, factory logging.LoggerFactory, serverFactory discovery.MDNSServerFactory) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      factory.NewLogger("bscp-server"),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(metrics.Config{Registry: a.registry})

	mux := request.NewMux(request.MuxConfig{LoggerFactory: factory})
	handler := collector.InstrumentHandler(mux)

	tcp, err := transport.NewTCP(transport.TCPConfig{
		ListenAddr: cfg.Listen,
		Workers:    cfg.Workers,
		Observer:   collector,
		Handler: func(id string, conn net.Conn) error {
			srv, err := session.NewServer(session.ServerConfig{
				Version:       wire.Version(cfg.Version),
				RSABits:       cfg.RSABits,
				Handler:       handler,
				LoggerFactory: factory,
				ID:            id,
			})
			if err != nil {
				return err
			}
			return srv.Serve(conn)
		},
		LoggerFactory: factory,
	})
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}
	a.tcp = tcp

	if cfg.Advertise {
		instance := cfg.Instance
		if instance == "" {
			if instance, err = os.Hostname(); err != nil {
				tcp.Stop()
				return nil, fmt.Errorf("instance name: %w", err)
			}
		}
		adv, err := discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Instance:      instance,
			Port:          tcp.LocalAddr().(*net.TCPAddr).Port,
			TXT:           discovery.TXT{Version: cfg.Version},
			ServerFactory: serverFactory,
			LoggerFactory: factory,
		})
		if err != nil {
			tcp.Stop()
			return nil, err
		}
		a.advertiser = adv
	}

	if cfg.MetricsListen != "" {
		httpMux := http.NewServeMux()
		httpMux.Handle("/metrics", metrics.Handler(a.registry))
		a.metricsSrv = &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           httpMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return a, nil
}

func (a *app) start() error {
	if err := a.tcp.Start(); err != nil {
		return err
	}
	a.log.Infof("accepting protocol version %d on %s", a.cfg.Version, a.tcp.LocalAddr())

	if a.advertiser != nil {
		if err := a.advertiser.Start(); err != nil {
			a.log.Warnf("mDNS advertisement disabled: %v", err)
		}
	}

	if a.metricsSrv != nil {
		go func() {
			a.log.Infof("serving metrics on %s/metrics", a.metricsSrv.Addr)
			if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Errorf("metrics server: %v", err)
			}
		}()
	}
	return nil
}

func (a *app) stop() {
	if a.advertiser != nil {
		if err := a.advertiser.Close(); err != nil {
			a.log.Warnf("stop mDNS advertisement: %v", err)
		}
	}
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.metricsSrv.Shutdown(ctx); err != nil {
			a.log.Warnf("stop metrics server: %v", err)
		}
		cancel()
	}
	if err := a.tcp.Stop(); err != nil {
		a.log.Warnf("stop transport: %v", err)
	}
	a.log.Info("server stopped")
}

// run serves until ctx is done.
func run(ctx context.Context, cfg config.Server, out io.Writer) error {
	factory, err := cfg.Log.Factory(out)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, factory, nil)
	if err != nil {
		return err
	}
	if err := a.start(); err != nil {
		a.stop()
		return err
	}

	<-ctx.Done()
	a.stop()
	return nil
}
