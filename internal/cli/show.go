package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qcwatch/internal/scan"
	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <instrument>",
		Short: "Display an instrument with its properties and events",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

// showOutput is the --json output of show.
type showOutput struct {
	Instrument *types.Instrument `json:"instrument"`
	Checkpoint time.Time         `json:"checkpoint"`
}

func runShow(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	inst, err := store.GetInstrument(cmd.Context(), args[0], types.FetchOptions{Properties: true, Events: true})
	if err != nil {
		return err
	}
	checkpoint, err := scan.NewFileCheckpoint(cfg.DataDir).Load()
	if err != nil {
		return err
	}

	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), showOutput{Instrument: inst, Checkpoint: checkpoint})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Instrument: %s\n", inst.Name)
	fmt.Fprintf(out, "Model:      %s (%s reader)\n", inst.Model, inst.Model.Family())
	fmt.Fprintf(out, "CV:         %s %s\n", inst.CV.Label, inst.CV.Version)
	fmt.Fprintf(out, "Properties: %d\n", len(inst.Properties))
	fmt.Fprintf(out, "Events:     %d\n", len(inst.Events))
	if checkpoint.IsZero() {
		fmt.Fprintln(out, "Last scan:  never")
	} else {
		fmt.Fprintf(out, "Last scan:  %s\n", humanize.Time(checkpoint))
	}
	if len(inst.Events) > 0 {
		fmt.Fprintln(out)
		printEvents(cmd, inst.Events)
	}
	return nil
}
