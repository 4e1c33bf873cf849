package launcher

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bakernet/harness/src/config"
)

func TestNewNodeConfig(t *testing.T) {
	cfg := config.NewTestConfig(t)

	n, err := NewNodeConfig(cfg, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if n.NodeID != "2" {
		t.Fatalf("NodeID should be 2, not %s", n.NodeID)
	}
	if n.ListenPort != 8002 {
		t.Fatalf("ListenPort should be 8002, not %d", n.ListenPort)
	}
	if n.RPCPort != 7002 {
		t.Fatalf("RPCPort should be 7002, not %d", n.RPCPort)
	}
	if n.Dir != "baker-2" {
		t.Fatalf("Dir should be baker-2, not %s", n.Dir)
	}
	if n.DesiredPeers != 4 {
		t.Fatalf("DesiredPeers should be 4, not %d", n.DesiredPeers)
	}

	expected := []string{
		"127.0.0.1:8000",
		"127.0.0.1:8001",
		"127.0.0.1:8003",
		"127.0.0.1:8004",
	}
	addrs := make([]string, len(n.Peers))
	for i, p := range n.Peers {
		addrs[i] = p.NetAddr
	}
	if !reflect.DeepEqual(addrs, expected) {
		t.Fatalf("peers should be %v, not %v", expected, addrs)
	}
}

func TestNodeIDIsHex(t *testing.T) {
	cfg := config.NewTestConfig(t)
	cfg.Nodes = 16

	n, err := NewNodeConfig(cfg, 10)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if n.NodeID != "a" {
		t.Fatalf("NodeID of node 10 should be a, not %s", n.NodeID)
	}
}

func TestNewNodeConfigRejectsBadIndex(t *testing.T) {
	cfg := config.NewTestConfig(t)

	if _, err := NewNodeConfig(cfg, -1); err == nil {
		t.Fatal("negative index should be rejected")
	}

	if _, err := NewNodeConfig(cfg, cfg.Nodes); err == nil {
		t.Fatal("index beyond the cluster size should be rejected")
	}
}

func TestEnv(t *testing.T) {
	cfg := config.NewTestConfig(t)
	cfg.GenesisRoot = "/srv/genesis_data"

	n, err := NewNodeConfig(cfg, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	expected := []string{
		"CONCORDIUM_NODE_CONNECTION_NO_BOOTSTRAP_DNS=1",
		"CONCORDIUM_NODE_CONNECTION_NO_DNSSEC=1",
		"CONCORDIUM_NODE_ID=2",
		"CONCORDIUM_NODE_CONFIG_DIR=baker-2",
		"CONCORDIUM_NODE_DATA_DIR=baker-2",
		"CONCORDIUM_NODE_BAKER_CREDENTIALS_FILE=/srv/genesis_data/bakers/baker-2-credentials.json",
		"CONCORDIUM_NODE_RPC_SERVER_PORT=7002",
		"CONCORDIUM_NODE_LISTEN_PORT=8002",
		"CONCORDIUM_NODE_LISTEN_ADDRESS=0.0.0.0",
		"CONCORDIUM_NODE_RUNTIME_HASKELL_RTS_FLAGS=-N2",
		"CONCORDIUM_NODE_CONNECTION_HOUSEKEEPING_INTERVAL=300",
		"CONCORDIUM_NODE_CONNECTION_DESIRED_NODES=4",
	}

	if got := n.Env(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("env should be\n%v\nnot\n%v", expected, got)
	}
}

func TestEnvConditionalEntries(t *testing.T) {
	cfg := config.NewTestConfig(t)

	n, err := NewNodeConfig(cfg, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	n.CredentialsFile = ""
	n.ConnectTo = "127.0.0.1:8001"
	n.MaxPeers = 1

	env := n.Env()

	find := func(key string) string {
		for _, e := range env {
			if len(e) > len(key) && e[:len(key)+1] == key+"=" {
				return e[len(key)+1:]
			}
		}
		return ""
	}

	if v := find("CONCORDIUM_NODE_BAKER_CREDENTIALS_FILE"); v != "" {
		t.Fatalf("credentials should be omitted, got %s", v)
	}
	if v := find("CONCORDIUM_NODE_CONNECTION_CONNECT_TO"); v != "127.0.0.1:8001" {
		t.Fatalf("connect-to should be 127.0.0.1:8001, not %q", v)
	}
	if v := find("CONCORDIUM_NODE_CONNECTION_MAX_ALLOWED_NODES"); v != "1" {
		t.Fatalf("max allowed nodes should be 1, not %q", v)
	}
}

func TestArgs(t *testing.T) {
	cfg := config.NewTestConfig(t)
	cfg.Nodes = 3

	n, err := NewNodeConfig(cfg, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	got := n.Args([]string{"--debug", "1"})
	expected := []string{
		"--connect-to", "127.0.0.1:8001",
		"--connect-to", "127.0.0.1:8002",
		"--debug", "1",
	}

	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("args should be %v, not %v", expected, got)
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	genesisRoot := filepath.Join(dir, "genesis_data")
	if err := os.MkdirAll(genesisRoot, 0755); err != nil {
		t.Fatalf("err: %v", err)
	}
	genesis := filepath.Join(genesisRoot, config.DefaultGenesisFile)
	if err := os.WriteFile(genesis, []byte("genesis-bytes"), 0644); err != nil {
		t.Fatalf("err: %v", err)
	}

	cfg := config.NewTestConfig(t)
	cfg.GenesisRoot = genesisRoot

	n, err := NewNodeConfig(cfg, 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	n.Dir = filepath.Join(dir, n.Dir)

	if err := n.Materialize(); err != nil {
		t.Fatalf("first materialize: %v", err)
	}

	copied := filepath.Join(n.Dir, config.DefaultGenesisFile)

	// scribble over the copy; a second run must restore it
	if err := os.WriteFile(copied, []byte("stale"), 0644); err != nil {
		t.Fatalf("err: %v", err)
	}

	if err := n.Materialize(); err != nil {
		t.Fatalf("second materialize: %v", err)
	}

	content, err := os.ReadFile(copied)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(content) != "genesis-bytes" {
		t.Fatalf("genesis copy should be restored, got %q", content)
	}
}

func TestMaterializeFailsWithoutGenesis(t *testing.T) {
	dir := t.TempDir()

	cfg := config.NewTestConfig(t)
	cfg.GenesisRoot = filepath.Join(dir, "nowhere")

	n, err := NewNodeConfig(cfg, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	n.Dir = filepath.Join(dir, n.Dir)

	if err := n.Materialize(); err == nil {
		t.Fatal("materialize should fail when the genesis file is missing")
	}
}
