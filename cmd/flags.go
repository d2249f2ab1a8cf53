package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cottand/trs/internal/log"
	"github.com/cottand/trs/trs"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type commonFlags struct {
	logLevel    *int
	logSections *[]string
	threadSafe  *bool
}

func addCommonFlags(cmd *cobra.Command) *commonFlags {
	return &commonFlags{
		logLevel:    cmd.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level"),
		logSections: cmd.Flags().StringSlice("log-section", nil, "sections to print debug and info records of, like rewrite or store"),
		threadSafe:  cmd.Flags().Bool("thread-safe", false, "use a term store that can be shared between goroutines"),
	}
}

// logger configures the log level and sections, and logs as text to a terminal and as JSON otherwise
func (f *commonFlags) logger(cmd *cobra.Command) *slog.Logger {
	log.SetLevel(slog.Level(*f.logLevel))
	log.EnableSections(*f.logSections...)

	w := cmd.ErrOrStderr()
	if file, ok := w.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		return log.NewLogger(w, func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
			return slog.NewTextHandler(w, opts)
		})
	}
	return log.NewLogger(w, func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
		return slog.NewJSONHandler(w, opts)
	})
}

// loadSystem loads the rule file at target, relative to the working directory
func loadSystem(target string, settings trs.Settings) (*trs.System, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of target: %w", err)
	}
	stat, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("could not stat target: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a rule file", target)
	}
	return trs.LoadSystem(os.DirFS(filepath.Dir(abs)), filepath.Base(abs), settings)
}
