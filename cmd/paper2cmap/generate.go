// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper2cmap/internal/cmap"
	"github.com/pdiddy/paper2cmap/internal/render"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate <pdf>",
	Short: "Generate a concept map from a paper",
	Long: `Generate loads a PDF, splits it into sections, and builds a concept map.

The two-phase strategy maps each section with scaled-down budgets and then
merges and prunes the partial maps in one call. The incremental strategy folds
each section into a single running map. With --stream, the incremental
strategy is used and the running map is printed as one JSON line per section.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	addGenerationFlags(generateCmd.Flags())
	bindFlags(generateCmd.Flags(), generationFlagKeys)

	generateCmd.Flags().StringP("format", "f", "json", "output format: json, yaml, or text")
	generateCmd.Flags().StringP("output", "o", "", "write the map to this file instead of stdout")
	generateCmd.Flags().Bool("stream", false, "print the running map after each section (incremental)")

	rootCmd.AddCommand(generateCmd)
}

// streamLine is one --stream output record.
type streamLine struct {
	Section   int              `json:"section"`
	Title     string           `json:"title"`
	Processed int              `json:"processed"`
	Total     int              `json:"total"`
	Map       types.ConceptMap `json:"cmap"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := render.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	stream, _ := cmd.Flags().GetBool("stream")
	if stream {
		viper.Set("generation.strategy", string(types.StrategyIncremental))
	}

	cfg, err := buildConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := engine.Load(ctx, args[0]); err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	if stream {
		return writeStream(out, engine.Stream(ctx, cfg.Generation))
	}

	result, err := engine.Generate(ctx, cfg.Generation)
	if err != nil {
		return err
	}
	logger.Info("concept map ready", "concepts", len(result.Concepts), "relationships", len(result.Relationships))
	return render.Map(out, result, format)
}

func writeStream(w io.Writer, snaps iter.Seq2[cmap.Snapshot, error]) error {
	enc := json.NewEncoder(w)
	for snap, err := range snaps {
		if err != nil {
			return err
		}
		line := streamLine{
			Section:   snap.Section.Index,
			Title:     snap.Section.Title,
			Processed: snap.Processed,
			Total:     snap.Total,
			Map:       snap.Map,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}
	return nil
}

// openOutput returns stdout or the --output file.
func openOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Warn("closing output file", "path", path, "error", err)
		}
	}, nil
}
