package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bakernet/harness/src/peers"
)

//NewPeersCmd returns the command that prints the static peer table, making
//the port convention inspectable without launching anything
func NewPeersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "peers",
		Short:   "Print the computed peer table",
		PreRunE: loadConfig,
		RunE:    printPeers,
	}

	cmd.Flags().Int("nodes", _config.Nodes, "Number of nodes in the cluster")
	cmd.Flags().String("host", _config.Host, "Host the nodes listen on")
	cmd.Flags().Int("peer-port-offset", _config.PeerPortOffset, "Base p2p port; node i listens on base+i")
	cmd.Flags().Bool("mesh", _config.Mesh, "Show the fully-connected topology instead of the line")
	cmd.Flags().Int("index", -1, "Only show the peers of this node")

	return cmd
}

func printPeers(cmd *cobra.Command, args []string) error {
	only := viper.GetInt("index")

	for i := 0; i < _config.Nodes; i++ {
		if only >= 0 && i != only {
			continue
		}

		var ps []*peers.Peer
		if _config.Mesh {
			ps = peers.Mesh(_config.Host, _config.PeerPortOffset, _config.Nodes, i)
		} else {
			ps = peers.Line(_config.Host, _config.PeerPortOffset, _config.Nodes, i)
		}

		fmt.Printf("node %d listens on %s:%d\n", i, _config.Host, _config.PeerPortOffset+i)
		for _, p := range ps {
			fmt.Printf("  -> node %d at %s\n", p.Index, p.NetAddr)
		}
	}

	return nil
}
