package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bakernet/harness/src/launcher"
)

//NewRunCmd returns the command that launches a single node by index. On
//success the bakernet process is replaced by the node executable, so the
//node's exit status and signal behavior propagate unchanged.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run [index] [node args...]",
		Short:   "Launch one node of the local network",
		PreRunE: loadConfig,
		RunE:    runNode,
	}

	// everything after the index is forwarded verbatim to the node
	cmd.Flags().SetInterspersed(false)

	AddRunFlags(cmd)

	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNode(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("missing required node index")
	}

	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("node index must be an integer, got %q", args[0])
	}

	return launcher.Launch(_config, index, args[1:])
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds the flags shared by the run and up commands
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("nodes", _config.Nodes, "Number of nodes in the cluster")
	cmd.Flags().String("host", _config.Host, "Host the nodes listen on")
	cmd.Flags().Int("rpc-port-offset", _config.RPCPortOffset, "Base gRPC port; node i serves on base+i")
	cmd.Flags().Int("peer-port-offset", _config.PeerPortOffset, "Base p2p port; node i listens on base+i")
	cmd.Flags().String("genesis-root", _config.GenesisRoot, "Path to the genesis output directory")
	cmd.Flags().String("node-bin", _config.NodeBin, "Node executable to launch")
	cmd.Flags().String("rts-flags", _config.RTSFlags, "RTS flags for the node's Haskell runtime")
	cmd.Flags().Duration("housekeeping-interval", _config.HousekeepingInterval, "How often nodes clean up their connections")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
}
