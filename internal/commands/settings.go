package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/meltforce/racecountdown/internal/plan"
)

func addSettings(topLevel *cobra.Command, o *Options) {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the training plan.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the current plan settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			v, err := c.Settings(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := o.printJSON(cmd.OutOrStdout(), v); ok {
				return err
			}
			printSettings(cmd.OutOrStdout(), v)
			return nil
		},
	})

	var d plan.Draft
	var p3 int
	var deriveP3 bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Change plan settings. Unset flags keep their current value.",
		Example: `
countdown settings set --event "City Marathon" --race 2026-10-11
countdown settings set --p3 4
countdown settings set --derive-p3
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("p3") && deriveP3 {
				return errors.New("--p3 and --derive-p3 are mutually exclusive")
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			cur, err := c.Settings(cmd.Context())
			if err != nil {
				return err
			}

			next := cur.Draft
			f := cmd.Flags()
			if f.Changed("event") {
				next.EventName = d.EventName
			}
			if f.Changed("season") {
				next.Season = d.Season
			}
			if f.Changed("year") {
				next.Year = d.Year
			}
			if f.Changed("start") {
				next.Start = d.Start
			}
			if f.Changed("race") {
				next.Race = d.Race
			}
			if f.Changed("p1") {
				next.P1 = d.P1
			}
			if f.Changed("p2") {
				next.P2 = d.P2
			}
			if f.Changed("p4") {
				next.P4 = d.P4
			}
			if f.Changed("sheet") {
				next.SheetURL = d.SheetURL
			}
			switch {
			case f.Changed("p3"):
				next.P3 = &p3
			case deriveP3:
				next.P3 = nil
			}

			v, err := c.SaveSettings(cmd.Context(), next)
			if err != nil {
				return err
			}
			if ok, err := o.printJSON(cmd.OutOrStdout(), v); ok {
				return err
			}
			printSettings(cmd.OutOrStdout(), v)
			return nil
		},
	}
	set.Flags().StringVar(&d.EventName, "event", "", "event name")
	set.Flags().StringVar(&d.Season, "season", "", "season (spring, summer, autumn, winter)")
	set.Flags().IntVar(&d.Year, "year", 0, "season year")
	set.Flags().StringVar(&d.Start, "start", "", "plan start date (YYYY-MM-DD)")
	set.Flags().StringVar(&d.Race, "race", "", "race date (YYYY-MM-DD)")
	set.Flags().IntVar(&d.P1, "p1", 0, "base phase length in weeks")
	set.Flags().IntVar(&d.P2, "p2", 0, "build phase length in weeks")
	set.Flags().IntVar(&p3, "p3", 0, "peak and taper length in weeks")
	set.Flags().BoolVar(&deriveP3, "derive-p3", false, "derive the peak and taper length from the race date")
	set.Flags().IntVar(&d.P4, "p4", 0, "recovery length in weeks")
	set.Flags().StringVar(&d.SheetURL, "sheet", "", "published schedule CSV URL")
	cmd.AddCommand(set)

	topLevel.AddCommand(cmd)
}
