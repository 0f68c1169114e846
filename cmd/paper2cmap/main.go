// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper2cmap CLI, which turns a
// research paper PDF into a concept map.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built from --verbose before any subcommand runs.
	logger = logging.Nop()

	// loadedSecrets holds API keys read from .secrets/ at startup.
	loadedSecrets = secrets.Store{}
)

var rootCmd = &cobra.Command{
	Use:   "paper2cmap",
	Short: "Generate concept maps from research papers",
	Long: `paper2cmap reads a research paper PDF, finds its section titles with an
LLM, splits the text into sections, and builds a concept map of the paper:
a set of key concepts and the labelled relationships between them.

Backends: openai (direct API), azure (managed Azure OpenAI deployment), and
ollama (local server). Settings come from flags, PAPER2CMAP_* environment
variables, and paper2cmap.yaml, in that order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(viper.GetBool("verbose"))
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", "count", len(s))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper2cmap.yaml or ~/.config/paper2cmap/config.yaml)")
	pf.BoolP("verbose", "v", false, "log prompts and model responses")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of API key files")
	pf.String("prompts", "", "prompt pack directory (prompts.yaml plus examples/) replacing the built-in one")
	addLLMFlags(pf)
	addExtractionFlags(pf)

	bindFlags(pf, map[string]string{
		"verbose":     "verbose",
		"secrets_dir": "secrets-dir",
		"prompts_dir": "prompts",
	})
	bindFlags(pf, llmFlagKeys)
	bindFlags(pf, extractionFlagKeys)
	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper2cmap")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper2cmap"))
		}
	}

	viper.SetEnvPrefix("PAPER2CMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; flags, env and defaults still apply.
	_ = viper.ReadInConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
