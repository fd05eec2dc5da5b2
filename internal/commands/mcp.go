package commands

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/meltforce/racecountdown/internal/mcp"
)

func addMCP(topLevel *cobra.Command, o *Options, version string) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio, backed by the server's REST API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			// stdout carries the protocol.
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			return server.ServeStdio(mcp.New(c, version, log))
		},
	})
}
