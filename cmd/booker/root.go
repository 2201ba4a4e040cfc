package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/pkordes/campsite-booking/internal/config"
)

type rootOptions struct {
	envFile    string
	outputJSON bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "booker",
		Short:        "Allocate head-office bookings onto campsites",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "Read environment variables from this file when it exists")
	cmd.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Output JSON")

	cmd.AddCommand(runCmd(opts))
	cmd.AddCommand(migrateCmd(opts))
	cmd.AddCommand(campsitesCmd(opts))
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
