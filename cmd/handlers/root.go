/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"paracluster/internal/config"
	"paracluster/internal/logger"
	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "paracluster",
		Short: "Paracluster clusters paraphrase candidates and scores them against gold clusterings.",
		Long: `Paracluster groups the paraphrase candidates of each target word into sense clusters
and evaluates the result against gold clusterings with the paired F-score.

Clusterings come from a random baseline or from word-embedding strategies:
  - random:  round-robin buckets from a seeded shuffle
  - sparse:  co-occurrence vectors, mean-shift
  - dense:   dense embeddings, DBSCAN
  - nocount: concatenated embeddings, k-means with at most 6 clusters`,
		SilenceUsage: true,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.paracluster.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewClusterCmd())
	rootCmd.AddCommand(NewEvaluateCmd())
	rootCmd.AddCommand(NewVectorsCmd())
	rootCmd.AddCommand(NewCorrelateCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	_ = logger.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Setup(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	// Show which config file is being used (if any)
	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
}
