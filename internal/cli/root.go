// Package cli implements the qcwatch command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "qcwatch" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qcwatch",
		Short: "Mass spectrometer telemetry monitoring",
		Long: "qcwatch extracts status and tune telemetry from instrument log files,\n" +
			"summarizes every channel and merges the results into a local store\n" +
			"together with instrument events.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: data_dir from config)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newEventCmd())
	root.AddCommand(newInstrumentCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newValuesCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps an error to the process exit code: bad input and rejected
// writes are user errors, everything else is a system error.
func exitCode(err error) int {
	userErrors := []error{
		types.ErrNotFound,
		types.ErrInstrumentNotFound,
		types.ErrConflict,
		types.ErrInvalidData,
		types.ErrInvalidName,
		types.ErrInvalidEventType,
		types.ErrInvalidFilter,
		types.ErrMappingInvalid,
		types.ErrCVLabelEmpty,
		types.ErrTimezone,
		types.ErrWorkersInvalid,
		errUsage,
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// errUsage marks invalid command arguments.
var errUsage = errors.New("invalid usage")

// newLogger returns a text logger writing to w, at debug level when
// --verbose is set.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}
