// Package commands implements the countdown command line client.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meltforce/racecountdown/internal/client"
)

// DefaultServer is used when neither flag, environment nor config file
// name a server.
const DefaultServer = "http://racecountdown"

const defaultConfigPath = "~/.racecountdown/cli.yaml"

// Options are the flags shared by every command.
type Options struct {
	Server     string
	ConfigPath string
	Date       string
	JSON       bool
}

type fileConfig struct {
	Server string `yaml:"server"`
}

// serverURL resolves the server: --server, then RACECOUNTDOWN_URL, then
// the config file, then DefaultServer.
func (o *Options) serverURL() (string, error) {
	if o.Server != "" {
		return o.Server, nil
	}
	if v := os.Getenv("RACECOUNTDOWN_URL"); v != "" {
		return v, nil
	}

	path, err := homedir.Expand(o.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", o.ConfigPath, err)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultServer, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	if fc.Server == "" {
		return DefaultServer, nil
	}
	return fc.Server, nil
}

func (o *Options) client() (*client.Client, error) {
	u, err := o.serverURL()
	if err != nil {
		return nil, err
	}
	return client.New(u), nil
}

// printJSON writes v indented when --json is set and reports whether it did.
func (o *Options) printJSON(w io.Writer, v any) (bool, error) {
	if !o.JSON {
		return false, nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

// New returns the root command.
func New(version string) *cobra.Command {
	o := &Options{}

	cmd := &cobra.Command{
		Use:           "countdown",
		Short:         "Race countdown and training schedule on the command line.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&o.Server, "server", "", "racecountdown server URL (default from $RACECOUNTDOWN_URL or the config file)")
	cmd.PersistentFlags().StringVar(&o.ConfigPath, "config", defaultConfigPath, "CLI config file")
	cmd.PersistentFlags().StringVar(&o.Date, "date", "", "reference date (YYYY-MM-DD) instead of today")
	cmd.PersistentFlags().BoolVar(&o.JSON, "json", false, "output as JSON")

	addToday(cmd, o)
	addCountdown(cmd, o)
	addPhases(cmd, o)
	addWeek(cmd, o)
	addWeeks(cmd, o)
	addSettings(cmd, o)
	addFeed(cmd, o)
	addDev(cmd, o)
	addMCP(cmd, o, version)
	return cmd
}
