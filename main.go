//go:build !( js || wasm)

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cottand/trs/cmd"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "trs [subcommand]",
	Short:        "trs\n a term rewriter with innermost strategies",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.RewriteCmd)
	rootCmd.AddCommand(cmd.CheckCmd)
}
