package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addDev(topLevel *cobra.Command, o *Options) {
	cmd := &cobra.Command{
		Use:    "dev",
		Short:  "Development helpers. The server must run in dev mode.",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var reset bool
	today := &cobra.Command{
		Use:   "today [YYYY-MM-DD]",
		Short: "Simulate the current date, or clear the simulation.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset == (len(args) == 1) {
				return fmt.Errorf("give either a date or --clear")
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			date := ""
			if len(args) == 1 {
				date = args[0]
			}
			if err := c.SetToday(cmd.Context(), date); err != nil {
				return err
			}
			if date == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "simulated date cleared")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "simulating %s\n", date)
			}
			return nil
		},
	}
	today.Flags().BoolVar(&reset, "clear", false, "return to the real date")
	cmd.AddCommand(today)

	topLevel.AddCommand(cmd)
}
