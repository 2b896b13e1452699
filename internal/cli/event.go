package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Record, list and remove instrument events",
	}
	cmd.AddCommand(newEventSetCmd())
	cmd.AddCommand(newEventDeleteCmd())
	cmd.AddCommand(newEventListCmd())
	return cmd
}

type eventSetOptions struct {
	instrument string
	date       string
	eventType  string
	problem    string
	solution   string
	extra      string
	attachment string
}

func newEventSetCmd() *cobra.Command {
	var opts eventSetOptions
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create an event or update the event at the same instrument and date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventSet(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.instrument, "instrument", "", "instrument name")
	cmd.Flags().StringVar(&opts.date, "date", "", "event date")
	cmd.Flags().StringVar(&opts.eventType, "type", "", "undefined, calibration, maintenance, incident, temperature or motion")
	cmd.Flags().StringVar(&opts.problem, "problem", "", "problem description")
	cmd.Flags().StringVar(&opts.solution, "solution", "", "solution description")
	cmd.Flags().StringVar(&opts.extra, "extra", "", "additional notes")
	cmd.Flags().StringVar(&opts.attachment, "attachment", "", "file to attach")
	cmd.MarkFlagRequired("instrument")
	cmd.MarkFlagRequired("date")
	return cmd
}

func runEventSet(cmd *cobra.Command, opts eventSetOptions) error {
	date, err := parseDate(opts.date)
	if err != nil {
		return err
	}
	et, err := types.ParseEventType(opts.eventType)
	if err != nil {
		return err
	}
	ev := &types.Event{
		InstrumentName: opts.instrument,
		Date:           date,
		Type:           et,
		Problem:        opts.problem,
		Solution:       opts.solution,
		Extra:          opts.extra,
	}
	if opts.attachment != "" {
		data, err := os.ReadFile(opts.attachment)
		if err != nil {
			return fmt.Errorf("reading attachment: %w", err)
		}
		ev.Attachment = data
		ev.AttachmentName = filepath.Base(opts.attachment)
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	if err := store.MergeEvent(cmd.Context(), ev); err != nil {
		return err
	}
	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), ev)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "event %s saved\n", ev.EventID)
	return nil
}

func newEventDeleteCmd() *cobra.Command {
	var instrument, date string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the event at an instrument and date",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			if err := store.DeleteEvent(cmd.Context(), instrument, d); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "event deleted")
			return nil
		},
	}
	cmd.Flags().StringVar(&instrument, "instrument", "", "instrument name")
	cmd.Flags().StringVar(&date, "date", "", "event date")
	cmd.MarkFlagRequired("instrument")
	cmd.MarkFlagRequired("date")
	return cmd
}

type eventListOptions struct {
	instrument string
	eventType  string
	from       string
	to         string
}

func newEventListCmd() *cobra.Command {
	var opts eventListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventList(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.instrument, "instrument", "", "only events of this instrument")
	cmd.Flags().StringVar(&opts.eventType, "type", "", "only events of this type")
	cmd.Flags().StringVar(&opts.from, "from", "", "earliest date")
	cmd.Flags().StringVar(&opts.to, "to", "", "latest date")
	return cmd
}

func runEventList(cmd *cobra.Command, opts eventListOptions) error {
	filter := types.Filter{}
	if opts.instrument != "" {
		filter["instrument"] = opts.instrument
	}
	if opts.eventType != "" {
		et, err := types.ParseEventType(opts.eventType)
		if err != nil {
			return err
		}
		filter["type"] = et
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

	events, err := store.FetchEvents(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), events)
	}
	printEvents(cmd, events)
	return nil
}

func printEvents(cmd *cobra.Command, events []*types.Event) {
	out := cmd.OutOrStdout()
	for _, ev := range events {
		fmt.Fprintf(out, "%s  %-12s %-11s %s", ev.Date.Local().Format(time.DateTime), ev.InstrumentName, ev.Type, ev.Problem)
		if len(ev.Attachment) > 0 {
			fmt.Fprintf(out, " [%s, %s]", ev.AttachmentName, humanize.Bytes(uint64(len(ev.Attachment))))
		}
		fmt.Fprintln(out)
	}
}

func addDateFilter(filter types.Filter, key, value string) error {
	if value == "" {
		return nil
	}
	t, err := parseDate(value)
	if err != nil {
		return err
	}
	filter[key] = t
	return nil
}
