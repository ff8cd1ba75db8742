package cli

import (
	"fmt"

	"secrules/internal/config"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("secrules %s\n", config.AppVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
