package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

func newInstrumentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instrument",
		Short: "Register and list instruments",
	}
	cmd.AddCommand(newInstrumentAddCmd())
	cmd.AddCommand(newInstrumentListCmd())
	return cmd
}

func newInstrumentAddCmd() *cobra.Command {
	var name, model string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an instrument; an existing name is rejected",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			inst := &types.Instrument{
				Name:  name,
				Model: types.ParseInstrumentModel(model),
				CV:    cfg.CV,
			}
			if err := store.InsertInstrument(cmd.Context(), inst); err != nil {
				return err
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), inst)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "instrument %s added (%s)\n", inst.Name, inst.Model)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "instrument name")
	cmd.Flags().StringVar(&model, "model", "", "vendor model, e.g. \"Q Exactive Plus\"")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newInstrumentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List instruments by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			insts, err := store.FetchInstruments(cmd.Context())
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), insts)
			}
			for _, inst := range insts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", inst.Name, inst.Model)
			}
			return nil
		},
	}
}
