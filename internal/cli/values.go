package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

type valuesOptions struct {
	instrument string
	property   string
	valueType  string
	from       string
	to         string
	limit      int
}

func newValuesCmd() *cobra.Command {
	var opts valuesOptions
	cmd := &cobra.Command{
		Use:   "values",
		Short: "Print the summarized values of one property over time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValues(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.instrument, "instrument", "", "only runs of this instrument")
	cmd.Flags().StringVar(&opts.property, "property", "", `property name, e.g. "RF Amplifier - Temp"`)
	cmd.Flags().StringVar(&opts.valueType, "type", string(types.ValueTypeStatusLog), "statuslog or tunemethod")
	cmd.Flags().StringVar(&opts.from, "from", "", "earliest sample date")
	cmd.Flags().StringVar(&opts.to, "to", "", "latest sample date")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum number of values")
	cmd.MarkFlagRequired("property")
	return cmd
}

func runValues(cmd *cobra.Command, opts valuesOptions) error {
	vt := types.ValueType(opts.valueType)
	if !types.IsValidValueType(vt) {
		return usageErrorf("unknown value type %q", opts.valueType)
	}
	if opts.limit < 0 {
		return usageErrorf("--limit must not be negative")
	}
	filter := types.Filter{"accession": types.Accession(vt, opts.property)}
	if opts.instrument != "" {
		filter["instrument"] = opts.instrument
	}
	if opts.limit > 0 {
		filter["limit"] = opts.limit
	}
	if err := addDateFilter(filter, "from", opts.from); err != nil {
		return err
	}
	if err := addDateFilter(filter, "to", opts.to); err != nil {
		return err
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	points, err := store.FetchValues(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), points)
	}

	out := cmd.OutOrStdout()
	for _, p := range points {
		fmt.Fprintf(out, "%s  %-12s %-24s n=%d  %s\n",
			p.SampleDate.Local().Format(time.DateTime), p.Instrument, p.Run, p.N, describe(p.Summary))
	}
	return nil
}

// describe renders the median and spread of a numeric summary, or the first
// raw value of a text channel.
func describe(s types.Summary) string {
	if s.Numeric == nil {
		return strconv.Quote(s.FirstValue)
	}
	return fmt.Sprintf("median=%g [%g, %g] sd=%g", s.Numeric.Median, s.Numeric.Min, s.Numeric.Max, s.Numeric.StdDev)
}
