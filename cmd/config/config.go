// Package config implements the config command.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/seismo-go/internal/classifier"
	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/scan"
)

// Command creates the config command and its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as YAML, credentials masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := conf.Dump(conf.GetSettings())
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and the model file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := conf.GetSettings()
			if err := conf.ValidateSettings(settings); err != nil {
				return err
			}
			if _, err := scan.ParamsFromSettings(&settings.Scan); err != nil {
				return err
			}
			path, err := classifier.ResolveModelPath(settings.Model)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok, model %s\n", path)
			return nil
		},
	})
	return cmd
}
