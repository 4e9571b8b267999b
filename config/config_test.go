package config

import (
	"strings"
	"testing"
	"time"
)

const minimal = `
http:
  addr: ":8080"
postgres:
  dsn: "postgres://localhost/ironbot"
gateway:
  feedUrl: "ws://gw/feed"
  baseUrl: "http://gw"
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Points.BlockSeconds != 1800 || cfg.Points.PointsPerBlock != 5 {
		t.Fatalf("accrual defaults: %+v", cfg.Points)
	}
	if cfg.Points.AFKSeconds != 3600 || cfg.Points.MuteGraceSeconds != 3600 {
		t.Fatalf("afk defaults: %+v", cfg.Points)
	}
	if got := cfg.AFKInterval(); got != time.Minute {
		t.Fatalf("afk interval default: %v", got)
	}
	if got := cfg.ReconcileInterval(); got != 5*time.Minute {
		t.Fatalf("reconcile interval default: %v", got)
	}
	if got := cfg.GatewayCallTimeout(); got != 15*time.Second {
		t.Fatalf("gateway timeout default: %v", got)
	}
	if cfg.Groups.Size != 4 || len(cfg.Groups.RoomNames) != 4 {
		t.Fatalf("group defaults: %+v", cfg.Groups)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("logging defaults: %+v", cfg.Logging)
	}
}

func TestParse_MissingRequired(t *testing.T) {
	cases := map[string]string{
		"http.addr":    strings.Replace(minimal, `addr: ":8080"`, `addr: ""`, 1),
		"postgres.dsn": strings.Replace(minimal, `dsn: "postgres://localhost/ironbot"`, `dsn: ""`, 1),
		"gateway.feed": strings.Replace(minimal, `feedUrl: "ws://gw/feed"`, `feedUrl: ""`, 1),
		"gateway.base": strings.Replace(minimal, `baseUrl: "http://gw"`, `baseUrl: ""`, 1),
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestParse_RoomNamesMismatch(t *testing.T) {
	raw := minimal + `
groups:
  size: 4
  roomNames: ["A", "B"]
`
	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatal("expected error for 2 names with size 4")
	}
}
