// Package cluster spawns and supervises the full set of local test-network
// nodes, streaming each node's output to per-node log files and to a
// consumer such as the tabbed log viewer.
package cluster

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/bakernet/harness/src/config"
	"github.com/bakernet/harness/src/launcher"
	"github.com/bakernet/harness/src/peers"
	"github.com/sirupsen/logrus"
)

// LogLine is one line of a node's stderr output.
type LogLine struct {
	Index int
	Text  string
}

// Node is one supervised member of the cluster.
type Node struct {
	Config *launcher.NodeConfig

	cmd     *exec.Cmd
	logFile *os.File
}

// Cluster owns the node processes of one local test network. Each node
// writes into its own directory; the genesis file is the only shared input
// and is treated as read-only.
type Cluster struct {
	cfg    *config.Config
	logger *logrus.Entry
	nodes  []*Node
	lines  chan LogLine

	wg       sync.WaitGroup
	killOnce sync.Once
}

// New returns a cluster for the given configuration. Nothing is spawned
// until Start is called.
func New(cfg *config.Config) *Cluster {
	return &Cluster{
		cfg:    cfg,
		logger: cfg.Logger(),
		lines:  make(chan LogLine, 256),
	}
}

// Lines returns the channel carrying node output. It is closed once every
// node has exited and its output has been consumed.
func (c *Cluster) Lines() <-chan LogLine {
	return c.lines
}

// Titles returns one display name per node, in index order.
func (c *Cluster) Titles() []string {
	titles := make([]string, c.cfg.Nodes)
	for i := range titles {
		titles[i] = fmt.Sprintf("Node %d", i)
	}
	return titles
}

// Start materializes every node directory and spawns every node process.
// If any node fails to start, the ones already running are killed.
func (c *Cluster) Start(extraArgs []string) error {
	for i := 0; i < c.cfg.Nodes; i++ {
		nc, err := c.nodeConfig(i)
		if err != nil {
			return err
		}

		if err := c.startNode(nc, extraArgs); err != nil {
			c.Kill()
			return err
		}
	}

	go func() {
		c.wg.Wait()
		close(c.lines)
	}()

	return nil
}

// Wait blocks until every node process has exited.
func (c *Cluster) Wait() {
	c.wg.Wait()
}

// Kill terminates all node processes. Safe to call more than once.
func (c *Cluster) Kill() {
	c.killOnce.Do(func() {
		for _, n := range c.nodes {
			if n.cmd.Process != nil {
				n.cmd.Process.Kill()
			}
		}
	})
}

// nodeConfig derives the identity of node i, adjusted for the cluster's
// topology.
func (c *Cluster) nodeConfig(i int) (*launcher.NodeConfig, error) {
	nc, err := launcher.NewNodeConfig(c.cfg, i)
	if err != nil {
		return nil, err
	}

	if c.cfg.Mesh {
		// Fully connected: everyone dials everyone, and the first Bakers
		// nodes get credentials.
		if i >= c.cfg.Bakers {
			nc.CredentialsFile = ""
		}
		return nc, nil
	}

	// Line topology: each node only dials the next one. Only the last node
	// bakes, so blocks travel the whole line when transactions are
	// submitted at the head.
	nc.Peers = nil
	if next := peers.Line(c.cfg.Host, c.cfg.PeerPortOffset, c.cfg.Nodes, i); len(next) > 0 {
		nc.ConnectTo = next[0].NetAddr
	}

	degree := peers.Degree(c.cfg.Nodes, i)
	nc.DesiredPeers = degree
	nc.MaxPeers = degree

	if i == c.cfg.Nodes-1 {
		nc.CredentialsFile = c.cfg.CredentialsFile(0)
	} else {
		nc.CredentialsFile = ""
	}

	return nc, nil
}

func (c *Cluster) startNode(nc *launcher.NodeConfig, extraArgs []string) error {
	if !c.cfg.ContinueState {
		if err := os.RemoveAll(nc.Dir); err != nil {
			return fmt.Errorf("removing old node directory: %w", err)
		}
	}

	if err := nc.Materialize(); err != nil {
		return err
	}

	cmd := exec.Command(c.cfg.NodeBin, nc.Args(extraArgs)...)
	cmd.Env = append(os.Environ(), nc.Env()...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	var logFile *os.File
	if !c.cfg.NoEmitLogs {
		logFile, err = os.Create(fmt.Sprintf("%s%d.log", config.NodeDirPrefix, nc.Index))
		if err != nil {
			return fmt.Errorf("creating node log file: %w", err)
		}
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return fmt.Errorf("launching node %d: %w", nc.Index, err)
	}

	c.logger.WithFields(logrus.Fields{
		"node":   nc.Index,
		"listen": nc.ListenPort,
		"rpc":    nc.RPCPort,
	}).Info("Node started")

	node := &Node{Config: nc, cmd: cmd, logFile: logFile}
	c.nodes = append(c.nodes, node)

	c.wg.Add(1)
	go c.readLogs(node, stderr)

	return nil
}

// readLogs copies one node's stderr, line by line, into the node's log file
// and onto the shared line channel, then reaps the process.
func (c *Cluster) readLogs(node *Node, stderr io.Reader) {
	defer c.wg.Done()

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if node.logFile != nil {
			fmt.Fprintln(node.logFile, line)
		}

		c.lines <- LogLine{Index: node.Config.Index, Text: line}
	}

	if node.logFile != nil {
		node.logFile.Close()
	}

	err := node.cmd.Wait()
	c.logger.WithField("node", node.Config.Index).WithError(err).Info("Node terminated")
}
