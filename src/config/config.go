package config

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/bakernet/harness/src/common"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultGenesisFile is the name of the shared genesis data file that
	// every node needs a copy of to join the same network instance.
	DefaultGenesisFile = "genesis.dat"

	// DefaultBakersDir is the sub-directory of the genesis root that holds
	// the per-node baker credentials produced by the genesis tool.
	DefaultBakersDir = "bakers"

	// NodeDirPrefix is the prefix of per-node working directories. Node i
	// lives in "baker-<i>".
	NodeDirPrefix = "baker-"
)

// Default configuration values.
const (
	DefaultLogLevel             = "debug"
	DefaultNodes                = 5
	DefaultBakers               = 5
	DefaultHost                 = "127.0.0.1"
	DefaultRPCPortOffset        = 7000
	DefaultPeerPortOffset       = 8000
	DefaultGenesisRoot          = "../deps/concordium-node/scripts/genesis/genesis_data"
	DefaultNodeBin              = "concordium-node"
	DefaultRTSFlags             = "-N2"
	DefaultHousekeepingInterval = 300 * time.Second
)

// Config contains all the configuration properties of the harness.
type Config struct {
	// Nodes is the number of nodes in the local cluster.
	Nodes int `mapstructure:"nodes"`

	// Bakers is the number of nodes, counted from index 0, that receive
	// baker credentials in a fully-connected cluster.
	Bakers int `mapstructure:"bakers"`

	// Host is the address the nodes listen on. The static peer convention
	// (host, port offset + index) only holds for single-host local testing.
	Host string `mapstructure:"host"`

	// RPCPortOffset is the base of the per-node gRPC ports. Node i serves
	// RPC on RPCPortOffset + i.
	RPCPortOffset int `mapstructure:"rpc-port-offset"`

	// PeerPortOffset is the base of the per-node p2p listen ports. Node i
	// listens on PeerPortOffset + i.
	PeerPortOffset int `mapstructure:"peer-port-offset"`

	// GenesisRoot is the directory containing genesis.dat and the bakers
	// credentials directory. It is shared read-only between all nodes.
	GenesisRoot string `mapstructure:"genesis-root"`

	// NodeBin is the node executable to launch. Resolved through PATH when
	// not an explicit path.
	NodeBin string `mapstructure:"node-bin"`

	// RTSFlags is forwarded to the node's Haskell runtime.
	RTSFlags string `mapstructure:"rts-flags"`

	// HousekeepingInterval is how often a node cleans up its connections.
	HousekeepingInterval time.Duration `mapstructure:"housekeeping-interval"`

	// Mesh connects every node to all the others. The default is a line,
	// where each node only dials the next one.
	Mesh bool `mapstructure:"mesh"`

	// ContinueState keeps existing node directories instead of recreating
	// them, so nodes restart from their previous state.
	ContinueState bool `mapstructure:"continue-state"`

	// NoEmitLogs disables the per-node baker-<i>.log files.
	NoEmitLogs bool `mapstructure:"no-emit-logs"`

	// NoTUI streams node output to stdout instead of the tabbed viewer.
	NoTUI bool `mapstructure:"no-tui"`

	// LogLevel determines the chattiness of the harness's own log output.
	LogLevel string `mapstructure:"log"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Nodes:                DefaultNodes,
		Bakers:               DefaultBakers,
		Host:                 DefaultHost,
		RPCPortOffset:        DefaultRPCPortOffset,
		PeerPortOffset:       DefaultPeerPortOffset,
		GenesisRoot:          DefaultGenesisRoot,
		NodeBin:              DefaultNodeBin,
		RTSFlags:             DefaultRTSFlags,
		HousekeepingInterval: DefaultHousekeepingInterval,
		LogLevel:             DefaultLogLevel,
	}
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t)
	return config
}

// SetLogger replaces the logger that Logger() would otherwise build.
func (c *Config) SetLogger(logger *logrus.Logger) {
	c.logger = logger
}

// GenesisFile returns the full path of the shared genesis data file.
func (c *Config) GenesisFile() string {
	return filepath.Join(c.GenesisRoot, DefaultGenesisFile)
}

// CredentialsFile returns the full path of the baker credentials for node
// index i.
func (c *Config) CredentialsFile(i int) string {
	return filepath.Join(c.GenesisRoot, DefaultBakersDir,
		fmt.Sprintf("baker-%d-credentials.json", i))
}

// NodeDir returns the working directory of node index i.
func (c *Config) NodeDir(i int) string {
	return fmt.Sprintf("%s%d", NodeDirPrefix, i)
}

// Logger returns a formatted logrus Entry, with prefix set to "bakernet".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "bakernet")
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
