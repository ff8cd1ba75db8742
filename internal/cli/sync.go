package cli

import (
	"fmt"
	"os"
	"time"

	"secrules/internal/config"
	"secrules/internal/logging"
	"secrules/internal/repository"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the materialized corpus",
	Long: `Refresh the corpus in the storage directory. With an upstream
repository configured this clones or pulls it and verifies the checkout;
without one it rewrites the embedded corpus. Private upstreams use the
token stored via 'secrules token set'.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := logging.NewAppLogger()

	// Sync writes into the storage directory, so a saved configuration is
	// required; Load's error already points the user at init.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	res, err := repository.Sync(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Println(res.Info.Message)
	fmt.Printf("%d writeups from %s in %s\n", res.Writeups, res.Source, res.Duration.Round(time.Millisecond))
	for _, p := range res.Problems {
		fmt.Fprintf(os.Stderr, "warning: %s\n", p)
	}
	return nil
}
