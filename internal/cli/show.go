package cli

import (
	"fmt"

	"secrules/internal/logging"
	"secrules/internal/rules"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	showLocale string
	showRaw    bool
)

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print one writeup",
	Long: `Print a single writeup by rule ID, for example 'secrules show SEC-008'.
IDs are case-insensitive. Writeups missing the requested locale fall
back to English.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showLocale, "locale", "", "locale to show, en or es (default: configured preference)")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print plain markdown without terminal rendering")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	logger := logging.NewSilentLogger()
	cfg := loadConfigOrDefault()

	corpus, err := loadCorpus(cfg, logger)
	if err != nil {
		return err
	}

	id := rules.NormalizeID(args[0])
	r, ok := corpus.Get(id, defaultLocale(showLocale, cfg))
	if !ok {
		return fmt.Errorf("no writeup with id %q, run 'secrules list' for the catalog", id)
	}

	doc := r.Document()
	if showRaw {
		fmt.Print(doc)
		return nil
	}

	rendered, err := renderMarkdown(doc)
	if err != nil {
		// Rendering is cosmetic. Fall back to the plain document.
		fmt.Print(doc)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

func renderMarkdown(doc string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(doc)
}
