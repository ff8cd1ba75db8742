package cli

import (
	"fmt"

	"secrules/internal/config"
	"secrules/internal/logging"
	"secrules/internal/rules"

	"github.com/spf13/cobra"
)

var (
	initDir    string
	initLocale string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration and materialize the corpus",
	Long: `Create the secrules configuration file and write the embedded rule
corpus into the storage directory, one markdown file per writeup and
locale. Later commands prefer the materialized copy, which makes local
edits visible without rebuilding.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initDir, "dir", "", "storage directory for the corpus (default: platform data dir)")
	initCmd.Flags().StringVar(&initLocale, "locale", "", "preferred writeup language, en or es (default: en)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "recreate the configuration even if one exists")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.NewAppLogger()

	if path, exists := config.FindConfigFile(); exists && !initForce {
		return fmt.Errorf("configuration already exists at %s (use --force to recreate)", path)
	}

	cfg, err := config.CreateNewConfig(initDir, initLocale)
	if err != nil {
		return err
	}

	corpus, err := rules.Embedded(logger)
	if err != nil {
		return err
	}
	if err := corpus.Materialize(cfg.CorpusDir()); err != nil {
		return fmt.Errorf("cannot materialize corpus: %w", err)
	}

	path, _ := config.ConfigPath()
	fmt.Printf("Configuration written to %s\n", path)
	fmt.Printf("Materialized %d markdown files into %s\n", corpus.Len(), cfg.CorpusDir())
	return nil
}
