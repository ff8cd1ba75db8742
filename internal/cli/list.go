package cli

import (
	"fmt"
	"strings"

	"secrules/internal/logging"
	"secrules/internal/rules"

	"github.com/spf13/cobra"
)

var (
	listLocale   string
	listSeverity string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the writeups in the corpus",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listLocale, "locale", "", "locale to list, en or es (default: configured preference)")
	listCmd.Flags().StringVar(&listSeverity, "severity", "", "only writeups with this severity (critical, high, medium, low)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	logger := logging.NewSilentLogger()
	cfg := loadConfigOrDefault()

	var severity rules.Severity
	if listSeverity != "" {
		var err error
		severity, err = rules.ParseSeverity(listSeverity)
		if err != nil {
			return err
		}
	}

	corpus, err := loadCorpus(cfg, logger)
	if err != nil {
		return err
	}

	table := formatRuleTable(corpus.List(defaultLocale(listLocale, cfg)), severity)
	if table == "" {
		fmt.Printf("no writeups with severity %q\n", severity)
		return nil
	}
	fmt.Print(table)
	return nil
}

// formatRuleTable renders one line per writeup, the same shape the MCP
// list_rules tool returns. An empty severity keeps everything.
func formatRuleTable(list []rules.Rule, severity rules.Severity) string {
	var b strings.Builder
	for _, r := range list {
		if severity != "" && r.Severity != severity {
			continue
		}
		fmt.Fprintf(&b, "%s  %-8s  %s\n", r.ID, r.Severity, r.Title)
	}
	return b.String()
}
