// Package launcher derives the identity of a single node in a local test
// cluster from its integer index, materializes the node's working directory,
// and execs the node executable with the resulting environment.
package launcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/bakernet/harness/src/config"
	"github.com/bakernet/harness/src/peers"
)

// Environment variables recognized by the node executable.
const (
	envNoBootstrapDNS       = "CONCORDIUM_NODE_CONNECTION_NO_BOOTSTRAP_DNS"
	envNoDNSSEC             = "CONCORDIUM_NODE_CONNECTION_NO_DNSSEC"
	envNodeID               = "CONCORDIUM_NODE_ID"
	envConfigDir            = "CONCORDIUM_NODE_CONFIG_DIR"
	envDataDir              = "CONCORDIUM_NODE_DATA_DIR"
	envBakerCredentials     = "CONCORDIUM_NODE_BAKER_CREDENTIALS_FILE"
	envRPCPort              = "CONCORDIUM_NODE_RPC_SERVER_PORT"
	envListenPort           = "CONCORDIUM_NODE_LISTEN_PORT"
	envListenAddress        = "CONCORDIUM_NODE_LISTEN_ADDRESS"
	envRTSFlags             = "CONCORDIUM_NODE_RUNTIME_HASKELL_RTS_FLAGS"
	envHousekeepingInterval = "CONCORDIUM_NODE_CONNECTION_HOUSEKEEPING_INTERVAL"
	envDesiredPeers         = "CONCORDIUM_NODE_CONNECTION_DESIRED_NODES"
	envMaxPeers             = "CONCORDIUM_NODE_CONNECTION_MAX_ALLOWED_NODES"
	envConnectTo            = "CONCORDIUM_NODE_CONNECTION_CONNECT_TO"
)

// NodeConfig is the full network identity of one node, derived entirely from
// its index. It is computed once per launch and has no persistence beyond
// the process environment and the node directory.
type NodeConfig struct {
	// Index is the 0-based position of the node in the cluster.
	Index int

	// NodeID is the hexadecimal encoding of the index.
	NodeID string

	// Dir is the node's working directory, used as both config dir and
	// data dir. It is created if absent.
	Dir string

	// GenesisFile is the shared genesis data file, copied into Dir.
	GenesisFile string

	// CredentialsFile is the baker credentials path inside the genesis
	// output directory. Empty means the node runs without credentials.
	CredentialsFile string

	// ListenAddress is the interface the node binds to.
	ListenAddress string

	// ListenPort is the p2p port, peer port offset + index.
	ListenPort int

	// RPCPort is the gRPC port, rpc port offset + index.
	RPCPort int

	// RTSFlags tunes the node's Haskell runtime.
	RTSFlags string

	// HousekeepingInterval is how often the node cleans up connections.
	HousekeepingInterval time.Duration

	// DesiredPeers is the number of connections the node aims for.
	DesiredPeers int

	// MaxPeers caps the number of connections. 0 leaves the node's own
	// default in place.
	MaxPeers int

	// ConnectTo is a single peer address passed through the environment,
	// used by the line topology. Empty means none.
	ConnectTo string

	// Peers are the addresses dialed with --connect-to arguments.
	Peers []*peers.Peer
}

// NewNodeConfig computes the identity of node index in a fully-connected
// cluster of cfg.Nodes nodes.
func NewNodeConfig(cfg *config.Config, index int) (*NodeConfig, error) {
	if index < 0 {
		return nil, fmt.Errorf("node index %d is negative", index)
	}

	if index >= cfg.Nodes {
		return nil, fmt.Errorf("node index %d out of range for a %d-node cluster", index, cfg.Nodes)
	}

	return &NodeConfig{
		Index:                index,
		NodeID:               fmt.Sprintf("%x", index),
		Dir:                  cfg.NodeDir(index),
		GenesisFile:          cfg.GenesisFile(),
		CredentialsFile:      cfg.CredentialsFile(index),
		ListenAddress:        "0.0.0.0",
		ListenPort:           cfg.PeerPortOffset + index,
		RPCPort:              cfg.RPCPortOffset + index,
		RTSFlags:             cfg.RTSFlags,
		HousekeepingInterval: cfg.HousekeepingInterval,
		DesiredPeers:         cfg.Nodes - 1,
		Peers:                peers.Mesh(cfg.Host, cfg.PeerPortOffset, cfg.Nodes, index),
	}, nil
}

// Env returns the configuration mapping consumed by the node executable, as
// KEY=value entries. The mapping is constructed locally; it is never set on
// the launcher's own process environment.
func (n *NodeConfig) Env() []string {
	env := []string{
		envNoBootstrapDNS + "=1",
		envNoDNSSEC + "=1",
		envNodeID + "=" + n.NodeID,
		envConfigDir + "=" + n.Dir,
		envDataDir + "=" + n.Dir,
	}

	if n.CredentialsFile != "" {
		env = append(env, envBakerCredentials+"="+n.CredentialsFile)
	}

	env = append(env,
		envRPCPort+"="+strconv.Itoa(n.RPCPort),
		envListenPort+"="+strconv.Itoa(n.ListenPort),
		envListenAddress+"="+n.ListenAddress,
		envRTSFlags+"="+n.RTSFlags,
		envHousekeepingInterval+"="+strconv.Itoa(int(n.HousekeepingInterval.Seconds())),
		envDesiredPeers+"="+strconv.Itoa(n.DesiredPeers),
	)

	if n.MaxPeers > 0 {
		env = append(env, envMaxPeers+"="+strconv.Itoa(n.MaxPeers))
	}

	if n.ConnectTo != "" {
		env = append(env, envConnectTo+"="+n.ConnectTo)
	}

	return env
}

// ConnectArgs returns one --connect-to flag per peer.
func (n *NodeConfig) ConnectArgs() []string {
	args := make([]string, 0, 2*len(n.Peers))
	for _, p := range n.Peers {
		args = append(args, "--connect-to", p.NetAddr)
	}
	return args
}

// Args returns the full node argument list: peer-connection flags followed
// by the caller-supplied pass-through arguments, verbatim.
func (n *NodeConfig) Args(extraArgs []string) []string {
	return append(n.ConnectArgs(), extraArgs...)
}

// Materialize creates the node directory and copies the genesis data file
// into it. Both steps are idempotent, so relaunching a node reuses the
// directory and overwrites its genesis copy.
func (n *NodeConfig) Materialize() error {
	if err := os.MkdirAll(n.Dir, 0755); err != nil {
		return fmt.Errorf("creating node directory: %w", err)
	}

	dst := filepath.Join(n.Dir, config.DefaultGenesisFile)
	if err := copyFile(n.GenesisFile, dst); err != nil {
		return fmt.Errorf("copying genesis data: %w", err)
	}

	return nil
}

// Exec replaces the current process with the node executable. It only
// returns on failure; on success the child's exit status and signals become
// the caller's own.
func (n *NodeConfig) Exec(nodeBin string, extraArgs []string) error {
	bin, err := exec.LookPath(nodeBin)
	if err != nil {
		return fmt.Errorf("resolving node executable: %w", err)
	}

	argv := append([]string{bin}, n.Args(extraArgs)...)
	env := append(os.Environ(), n.Env()...)

	return syscall.Exec(bin, argv, env)
}

// Launch runs the full launcher sequence for one node: derive the identity,
// materialize the directory, exec the node. It never returns on success.
func Launch(cfg *config.Config, index int, extraArgs []string) error {
	n, err := NewNodeConfig(cfg, index)
	if err != nil {
		return err
	}

	if err := n.Materialize(); err != nil {
		return err
	}

	return n.Exec(cfg.NodeBin, extraArgs)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
