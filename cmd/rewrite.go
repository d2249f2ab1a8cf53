package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cottand/trs/frontend"
	"github.com/cottand/trs/trs"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var RewriteCmd = &cobra.Command{
	Use:          "rewrite file.yaml",
	Short:        "Rewrite terms to normal form with the equations of a rule file",
	RunE:         runRewrite,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	rewriteCommon   *commonFlags
	rewriteExprs    *[]string
	rewriteParallel *int
	rewriteStats    *bool
	rewriteWatch    *bool
	maxCombinations *int
)

func init() {
	rewriteCommon = addCommonFlags(RewriteCmd)
	rewriteExprs = RewriteCmd.Flags().StringArrayP("expr", "e", nil, "term to rewrite instead of the eval section of the file, can be repeated")
	rewriteParallel = RewriteCmd.Flags().IntP("parallel", "p", 1, "number of terms rewritten at the same time")
	rewriteStats = RewriteCmd.Flags().Bool("stats", false, "print rewrite statistics after the normal forms")
	rewriteWatch = RewriteCmd.Flags().BoolP("watch", "w", false, "rewrite again whenever the rule file changes")
	maxCombinations = RewriteCmd.Flags().Int("max-combinations", 0, "maximum number of instances a quantifier is enumerated with")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	logger := rewriteCommon.logger(cmd)
	target := args[0]

	err := rewriteFile(cmd.Context(), cmd.OutOrStdout(), target, logger)
	if !*rewriteWatch {
		return err
	}
	if err != nil {
		logger.Error("rewrite failed", "error", err)
	}
	return watchFile(cmd.Context(), target, logger, func() error {
		return rewriteFile(cmd.Context(), cmd.OutOrStdout(), target, logger)
	})
}

func rewriteFile(ctx context.Context, out io.Writer, target string, logger *slog.Logger) error {
	sys, err := loadSystem(target, trs.Settings{
		ThreadSafe:      *rewriteCommon.threadSafe || *rewriteParallel > 1,
		Logger:          logger,
		MaxCombinations: *maxCombinations,
	})
	if err != nil {
		return fmt.Errorf("could not load rule file: %w", err)
	}
	defer sys.Close()

	evaluations := sys.File.Evaluations
	if len(*rewriteExprs) > 0 {
		evaluations = make([]frontend.Evaluation, 0, len(*rewriteExprs))
		for _, expr := range *rewriteExprs {
			ev, err := frontend.ParseEvaluation(sys.Store, sys.File.Scope, frontend.EvalEntry{Term: expr})
			if err != nil {
				return err
			}
			evaluations = append(evaluations, ev)
		}
	}

	results, err := sys.Evaluate(ctx, evaluations, *rewriteParallel)
	if err != nil {
		return err
	}
	mismatches := 0
	for _, result := range results {
		if result.Matches() {
			_, _ = fmt.Fprintf(out, "%s = %v\n", result.Evaluation.Source, result.NormalForm)
			continue
		}
		mismatches++
		_, _ = fmt.Fprintf(out, "%s = %v, expected %v\n", result.Evaluation.Source, result.NormalForm, result.Expected)
	}

	if *rewriteStats {
		if err := writeStats(out); err != nil {
			return fmt.Errorf("could not write statistics: %w", err)
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("%d of %d terms did not rewrite to the expected normal form", mismatches, len(results))
	}
	return nil
}

// writeStats prints the metrics of the rewriter in the Prometheus text format
func writeStats(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	families = slices.DeleteFunc(families, func(mf *dto.MetricFamily) bool {
		return !strings.HasPrefix(mf.GetName(), "trs_")
	})
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// watchFile calls onChange every time target is written, until ctx is done
func watchFile(ctx context.Context, target string, logger *slog.Logger, onChange func() error) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not watch %s: %w", target, err)
	}
	defer func() {
		_ = watcher.Close()
	}()
	// editors often replace the file instead of writing to it, so watch its directory
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("could not watch %s: %w", target, err)
	}
	logger.Info("watching rule file", "path", abs)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Info("rule file changed", "path", event.Name)
			if err := onChange(); err != nil {
				logger.Error("rewrite failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("rule file watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}
