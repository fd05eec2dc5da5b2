package commands

import (
	"github.com/spf13/cobra"
)

func addFeed(topLevel *cobra.Command, o *Options) {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Inspect and reload the schedule feed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Reload the schedule now.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			v, err := c.RefreshFeed(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := o.printJSON(cmd.OutOrStdout(), v); ok {
				return err
			}
			printStatus(cmd.OutOrStdout(), v)
			return nil
		},
	})

	var limit int
	log := &cobra.Command{
		Use:   "log",
		Short: "List recent feed fetches.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			v, err := c.FetchLog(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ok, err := o.printJSON(cmd.OutOrStdout(), v); ok {
				return err
			}
			printFetchLog(cmd.OutOrStdout(), v)
			return nil
		},
	}
	log.Flags().IntVar(&limit, "limit", 20, "number of entries")
	cmd.AddCommand(log)

	topLevel.AddCommand(cmd)
}
