package commands

import (
	"github.com/spf13/cobra"

	"github.com/bakernet/harness/src/config"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for bakernet
var RootCmd = &cobra.Command{
	Use:              "bakernet",
	Short:            "bakernet drives local baker test networks",
	TraverseChildren: true,
}
