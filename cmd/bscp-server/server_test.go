package main

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/test"

	"github.com/Agrael11/BSCP/pkg/config"
	"github.com/Agrael11/BSCP/pkg/discovery"
	"github.com/Agrael11/BSCP/pkg/session"
)

func TestAppServesPing(t *testing.T) {
	lim := test.TimeOut(30 * time.Second)
	defer lim.Stop()

	cfg := config.DefaultServer()
	cfg.Listen = "127.0.0.1:0"
	cfg.RSABits = 1024
	cfg.Advertise = true
	cfg.Instance = "bscp-test"

	mdns := &discovery.MockServerFactory{}
	a, err := newApp(cfg, logging.NewDefaultLoggerFactory(), mdns)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	if err := a.start(); err != nil {
		t.Fatalf("start() error = %v", err)
	}
	defer a.stop()

	addr := a.tcp.LocalAddr().(*net.TCPAddr)
	if len(mdns.Registrations) != 1 || mdns.Registrations[0].Port != addr.Port {
		t.Fatalf("registrations = %+v, want port %d", mdns.Registrations, addr.Port)
	}

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	client, err := session.NewClient(conn, session.ClientConfig{RSABits: 1024})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	resp, err := client.Request(`{"requestType":"ping"}`)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if want := `{"responseType":"pong","responseData":[]}`; resp != want {
		t.Errorf("Request() = %s, want %s", resp, want)
	}
	if err := client.Goodbye(); err != nil {
		t.Errorf("Goodbye() error = %v", err)
	}
}

func TestAppStopLogsErrors(t *testing.T) {
	cfg := config.DefaultServer()
	cfg.Listen = "127.0.0.1:0"
	cfg.Advertise = true
	cfg.Instance = "bscp-test"

	var out bytes.Buffer
	factory, err := config.Log{Level: "warn", NoColor: true}.Factory(&out)
	if err != nil {
		t.Fatalf("Factory() error = %v", err)
	}
	a, err := newApp(cfg, factory, &discovery.MockServerFactory{})
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	if err := a.start(); err != nil {
		t.Fatalf("start() error = %v", err)
	}

	a.stop()
	if s := out.String(); strings.Contains(s, "stop ") {
		t.Errorf("first stop() logged warnings:\n%s", s)
	}

	a.stop()
	for _, want := range []string{"stop mDNS advertisement", "stop transport"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("second stop() output missing %q:\n%s", want, out.String())
		}
	}
}
