package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/mcp"
)

type versionInfo struct {
	Version string `json:"version"`
	MCP     string `json:"mcp"`
	Go      string `json:"go"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versionInfo{Version: version, MCP: mcp.Version, Go: runtime.Version()}
		return render(cmd.OutOrStdout(), info, func() {
			fmt.Fprintf(cmd.OutOrStdout(), "ragbox version %s\n", info.Version)
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
