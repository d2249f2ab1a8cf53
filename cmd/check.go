package cmd

import (
	"fmt"

	"github.com/cottand/trs/rwerr"
	"github.com/cottand/trs/trs"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check file.yaml",
	Short:        "Report malformed equations and print the rewrite strategy of every function symbol",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var checkCommon *commonFlags

func init() {
	checkCommon = addCommonFlags(CheckCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := checkCommon.logger(cmd)
	sys, err := loadSystem(args[0], trs.Settings{
		ThreadSafe: *checkCommon.threadSafe,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not load rule file: %w", err)
	}
	defer sys.Close()

	out := cmd.OutOrStdout()
	for strat := range sys.Rewriter.Strategies().All() {
		if err := strat.Verify(); err != nil {
			return fmt.Errorf("invalid strategy for %v: %w", strat.Symbol, err)
		}
		_, _ = fmt.Fprintln(out, strat)
	}
	if !sys.Errors().HasError() {
		return nil
	}
	for _, ruleErr := range sys.Errors().Errors() {
		_, _ = fmt.Fprintln(out, rwerr.FormatWithCode(ruleErr))
	}
	return fmt.Errorf("%d equations were rejected", len(sys.Errors().Equations()))
}
