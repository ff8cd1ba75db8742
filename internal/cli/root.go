// Package cli implements the secrules command line interface.
//
// The layout follows the usual cobra split: this file owns the root
// command and shared helpers, and each subcommand lives in its own file
// and registers itself in init.
package cli

import (
	"secrules/internal/config"
	"secrules/internal/logging"
	"secrules/internal/rules"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "secrules",
	Short: "Bilingual security rule corpus for MCP server authors",
	Long: `secrules ships twelve security writeups (SEC-001 through SEC-012) about
building Model Context Protocol servers, in English and Spanish.

The corpus is embedded in the binary. Run 'secrules init' to materialize
it on disk, 'secrules serve' to publish it over MCP, and 'secrules browse'
to read it in the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfigOrDefault returns the saved configuration when one exists and
// the defaults otherwise, so read-only commands work before `secrules
// init` has ever run.
func loadConfigOrDefault() *config.Config {
	if cfg, err := config.Load(); err == nil && cfg != nil {
		return cfg
	}
	def := config.DefaultConfig()
	return &def
}

// loadCorpus prefers the corpus materialized by `secrules init` and falls
// back to the embedded copy.
func loadCorpus(cfg *config.Config, logger *logging.AppLogger) (*rules.Corpus, error) {
	if cfg != nil && cfg.StorageDir != "" {
		if corpus, err := rules.LoadDir(cfg.CorpusDir(), logger); err == nil {
			return corpus, nil
		}
	}
	return rules.Embedded(logger)
}

// defaultLocale resolves the locale for a command: explicit flag first,
// then the configured preference, then the corpus default.
func defaultLocale(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg != nil && cfg.Locale != "" {
		return cfg.Locale
	}
	return rules.DefaultLocale
}
