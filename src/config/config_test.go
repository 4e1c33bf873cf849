package config

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Nodes != 5 {
		t.Fatalf("default cluster size should be 5, not %d", cfg.Nodes)
	}
	if cfg.RPCPortOffset != 7000 {
		t.Fatalf("default rpc port offset should be 7000, not %d", cfg.RPCPortOffset)
	}
	if cfg.PeerPortOffset != 8000 {
		t.Fatalf("default peer port offset should be 8000, not %d", cfg.PeerPortOffset)
	}
	if cfg.Host != "127.0.0.1" {
		t.Fatalf("default host should be 127.0.0.1, not %s", cfg.Host)
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.GenesisRoot = "/srv/genesis_data"

	if got := cfg.GenesisFile(); got != filepath.Join("/srv/genesis_data", "genesis.dat") {
		t.Fatalf("unexpected genesis file path: %s", got)
	}

	expected := filepath.Join("/srv/genesis_data", "bakers", "baker-3-credentials.json")
	if got := cfg.CredentialsFile(3); got != expected {
		t.Fatalf("credentials path should be %s, not %s", expected, got)
	}

	if got := cfg.NodeDir(7); got != "baker-7" {
		t.Fatalf("node dir should be baker-7, not %s", got)
	}
}

func TestLogLevel(t *testing.T) {
	for _, c := range []struct {
		in  string
		out logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"fatal", logrus.FatalLevel},
		{"panic", logrus.PanicLevel},
		{"bogus", logrus.DebugLevel},
	} {
		if got := LogLevel(c.in); got != c.out {
			t.Errorf("LogLevel(%s) => %v != %v", c.in, got, c.out)
		}
	}
}
