package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

//RootCmd is the root command for NRS
var RootCmd = &cobra.Command{
	Use:              "nrs",
	Short:            "network remote synchronization",
	TraverseChildren: true,
}
