package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"bal-board/internal/i18n"
	"bal-board/internal/model"
	"bal-board/internal/report"
	"bal-board/internal/service"
)

var (
	weekYes      bool
	reportWeek   string
	reportOutput string
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Week lifecycle commands",
}

// confirmOrExplain prints the localized prompt of a confirmation error.
func confirmOrExplain(cmd *cobra.Command, err error) error {
	var confirm *service.ConfirmationError
	if errors.As(err, &confirm) {
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T(cmd.Context(), confirm.MessageID, confirm.Data))
		fmt.Fprintln(cmd.OutOrStdout(), "Re-run with --yes to proceed.")
	}
	return err
}

var weekPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Archive the production week and promote the preparation week",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		board, st, err := openBoard(ctx)
		if err != nil {
			return err
		}
		defer closeStore(st)

		if _, err := board.SelectWeek(ctx, model.SelectNext); err != nil {
			return err
		}
		archive, err := board.Promote(ctx, weekYes)
		if err != nil {
			return confirmOrExplain(cmd, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "archived %s (%s, %d logs)\n", archive.WeekLabel, archive.ID, len(archive.Data.Logs))
		return nil
	},
}

var weekResetCmd = &cobra.Command{
	Use:   "reset [current|next]",
	Short: "Reset a live week",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		board, st, err := openBoard(ctx)
		if err != nil {
			return err
		}
		defer closeStore(st)

		id := model.SelectCurrent
		if len(args) == 1 {
			id = args[0]
		}
		if id != model.SelectCurrent && id != model.SelectNext {
			return eris.Errorf("week reset: %q is not a live week", id)
		}
		if _, err := board.SelectWeek(ctx, id); err != nil {
			return err
		}
		if err := board.Reset(ctx, weekYes); err != nil {
			return confirmOrExplain(cmd, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "week reset")
		return nil
	},
}

var weekListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the selectable weeks, archives included",
	RunE: func(cmd *cobra.Command, args []string) error {
		board, st, err := openBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore(st)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tKIND\tSTART\tLABEL")
		for _, o := range board.Weeks().Options {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, o.Kind, o.StartDate, o.Label)
		}
		return tw.Flush()
	},
}

var weekReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the weekly report of a week as an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		board, st, err := openBoard(ctx)
		if err != nil {
			return err
		}
		defer closeStore(st)

		if _, err := board.SelectWeek(ctx, reportWeek); err != nil {
			return err
		}
		f, err := os.Create(reportOutput)
		if err != nil {
			return eris.Wrapf(err, "create %s", reportOutput)
		}
		if err := report.WriteWeekly(f, board.WeeklyReport()); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", reportOutput)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", reportOutput)
		return nil
	},
}

func init() {
	weekPromoteCmd.Flags().BoolVar(&weekYes, "yes", false, "confirm the promotion")
	weekResetCmd.Flags().BoolVar(&weekYes, "yes", false, "confirm the reset")
	weekReportCmd.Flags().StringVar(&reportWeek, "week", model.SelectCurrent, "week id (current, next or an archive id)")
	weekReportCmd.Flags().StringVarP(&reportOutput, "output", "o", "rapport-hebdo.xlsx", "output file")

	weekCmd.AddCommand(weekPromoteCmd, weekResetCmd, weekListCmd, weekReportCmd)
	rootCmd.AddCommand(weekCmd)
}
