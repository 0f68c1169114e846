// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper2cmap/internal/render"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections <pdf>",
	Short: "Show the section catalogue of a paper",
	Long: `Sections loads a PDF, asks the model for its section titles, and prints
the catalogue together with the sections the text was split into. No concept
map is generated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := render.ParseFormat(formatFlag)
		if err != nil {
			return err
		}

		cfg, err := buildConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg, logger)
		if err != nil {
			return err
		}
		if err := engine.Load(cmd.Context(), args[0]); err != nil {
			return err
		}
		return render.Outline(cmd.OutOrStdout(), engine.Paper(), format)
	},
}

func init() {
	sectionsCmd.Flags().StringP("format", "f", "text", "output format: json, yaml, or text")
	rootCmd.AddCommand(sectionsCmd)
}
