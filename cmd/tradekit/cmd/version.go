package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the build.
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tradekit version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tradekit %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
