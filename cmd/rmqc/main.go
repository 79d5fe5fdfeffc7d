package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// exitCode 由子命令设置，evaluate 用它表达批次结论
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "rmqc",
	Short: "Raw-material inspection validation and decision engine",
	Long: `rmqc validates raw-material inspection entries (visual, dimensional,
chemical/mechanical) against the configured limits and decides heat and lot
disposition. Run "rmqc serve" for the HTTP service or "rmqc evaluate" to judge
a lot file offline.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(limitsCmd)
	rootCmd.Version = Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
