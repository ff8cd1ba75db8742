package cli

import (
	"fmt"
	"strings"

	"secrules/internal/logging"
	"secrules/internal/tui"
	"secrules/internal/tui/helpers"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Read the corpus in an interactive terminal browser",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// Log to the state file so nothing scribbles over the alt screen.
	logger := logging.NewAppLogger()

	cfg := loadConfigOrDefault()
	corpus, err := loadCorpus(cfg, logger)
	if err != nil {
		return err
	}

	subtitle := fmt.Sprintf("%d writeups, locales %s", len(corpus.IDs()), strings.Join(corpus.Locales(), "/"))
	ctx := helpers.NewUIContext(0, 0, cfg, logger)
	// The browser picks its starting locale from the configured preference.
	browser := tui.NewBrowser("Security Rules", subtitle, corpus, "", ctx)

	program := tea.NewProgram(&browser, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
