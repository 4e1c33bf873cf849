package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bakernet/harness/src/cluster"
	"github.com/bakernet/harness/src/tui"
)

//NewUpCmd returns the command that runs the whole local network under
//supervision, with a tabbed live view of every node's logs
func NewUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "up [node args...]",
		Short:   "Run all nodes of the local network",
		PreRunE: loadConfig,
		RunE:    runCluster,
	}

	cmd.Flags().SetInterspersed(false)

	AddRunFlags(cmd)
	AddUpFlags(cmd)

	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runCluster(cmd *cobra.Command, args []string) error {
	_config.SetLogger(newLogger(!_config.NoEmitLogs, !_config.NoTUI))

	c := cluster.New(_config)

	if err := c.Start(args); err != nil {
		return err
	}

	//Relay SIGINT and SIGTERM to the nodes
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		c.Kill()
	}()

	if _config.NoTUI {
		for line := range c.Lines() {
			fmt.Printf("node-%d | %s\n", line.Index, line.Text)
		}
		c.Wait()
		return nil
	}

	err := tui.Run(c.Titles(), c.Lines(), c.Kill)

	// drain whatever the dying nodes still emit so their readers can finish
	go func() {
		for range c.Lines() {
		}
	}()

	c.Wait()

	return err
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddUpFlags adds the cluster-runner flags to the up command
func AddUpFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("mesh", _config.Mesh, "Connect every node to all the others instead of in a line")
	cmd.Flags().Int("bakers", _config.Bakers, "Number of baking nodes in a mesh network")
	cmd.Flags().Bool("continue-state", _config.ContinueState, "Reuse existing node directories")
	cmd.Flags().Bool("no-emit-logs", _config.NoEmitLogs, "Do not write per-node log files")
	cmd.Flags().Bool("no-tui", _config.NoTUI, "Stream node output to stdout instead of the tabbed viewer")
}
