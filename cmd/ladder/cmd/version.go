package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the ladder CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ladder version %s\n", version)
		fmt.Println("Laddered take-profit backtester and parameter optimizer")
		fmt.Println("https://github.com/rustyeddy/ladder")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
