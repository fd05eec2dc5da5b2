package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meltforce/racecountdown/internal/widget"
)

func addToday(topLevel *cobra.Command, o *Options) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "today",
		Short: "Show the scheduled workout.",
		Example: `
countdown today
countdown today --date 2026-07-01
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			v, err := c.Today(cmd.Context(), o.Date)
			if err != nil {
				return err
			}
			if ok, err := o.printJSON(cmd.OutOrStdout(), v); ok {
				return err
			}
			printToday(cmd.OutOrStdout(), v)
			return nil
		},
	})
}

func addCountdown(topLevel *cobra.Command, o *Options) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "countdown",
		Short: "Show the time left until race day.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			v, err := c.Countdown(cmd.Context(), o.Date)
			if err != nil {
				return err
			}
			if ok, err := o.printJSON(cmd.OutOrStdout(), v); ok {
				return err
			}
			printCountdown(cmd.OutOrStdout(), v)
			return nil
		},
	})
}

func addPhases(topLevel *cobra.Command, o *Options) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "phases",
		Short: "List the training phases and their status.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			v, err := c.Phases(cmd.Context(), o.Date)
			if err != nil {
				return err
			}
			if ok, err := o.printJSON(cmd.OutOrStdout(), v); ok {
				return err
			}
			printPhases(cmd.OutOrStdout(), v)
			return nil
		},
	})
}

func addWeek(topLevel *cobra.Command, o *Options) {
	var next, prev bool
	var jump string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the selected training week.",
		Example: `
countdown week
countdown week --next
countdown week --jump 2026-06-29
`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, b := range []bool{next, prev, jump != ""} {
				if b {
					set++
				}
			}
			if set > 1 {
				return errors.New("--next, --prev and --jump are mutually exclusive")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}

			var v widget.WeekView
			switch {
			case next:
				v, err = c.StepWeek(cmd.Context(), widget.Next, o.Date)
			case prev:
				v, err = c.StepWeek(cmd.Context(), widget.Prev, o.Date)
			default:
				v, err = c.Week(cmd.Context(), jump, o.Date)
			}
			if err != nil {
				return err
			}
			if ok, err := o.printJSON(cmd.OutOrStdout(), v); ok {
				return err
			}
			if v.Fallback {
				fmt.Fprintf(cmd.ErrOrStderr(), "no training scheduled in the week of %s, showing the nearest week\n", jump)
			}
			printWeek(cmd.OutOrStdout(), v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&next, "next", false, "step to the following week")
	cmd.Flags().BoolVar(&prev, "prev", false, "step to the previous week")
	cmd.Flags().StringVar(&jump, "jump", "", "jump to the week containing this date (YYYY-MM-DD)")
	topLevel.AddCommand(cmd)
}

func addWeeks(topLevel *cobra.Command, o *Options) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "weeks",
		Short: "List the weeks that have scheduled training.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			v, err := c.Weeks(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := o.printJSON(cmd.OutOrStdout(), v); ok {
				return err
			}
			printWeeks(cmd.OutOrStdout(), v)
			return nil
		},
	})
}
