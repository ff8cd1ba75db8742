package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"secrules/internal/repository"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the access token for private upstream repositories",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a GitHub Personal Access Token in the system keyring",
	Long: `Read a token from standard input and store it in the system keyring.
The token never touches the configuration file or the command line,
which would leak it through backups and shell history (see SEC-003).`,
	Args: cobra.NoArgs,
	RunE: runTokenSet,
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored token, masked",
	Args:  cobra.NoArgs,
	RunE:  runTokenShow,
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored token from the keyring",
	Args:  cobra.NoArgs,
	RunE:  runTokenClear,
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenShowCmd, tokenClearCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	fmt.Fprint(os.Stderr, "Paste the token: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("cannot read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return fmt.Errorf("empty token")
	}

	if err := repository.NewCredentialManager().StoreToken(token); err != nil {
		return err
	}
	fmt.Println("Token stored in the system keyring.")
	return nil
}

func runTokenShow(cmd *cobra.Command, args []string) error {
	token, err := repository.NewCredentialManager().Token()
	if err != nil {
		return err
	}
	fmt.Println(repository.MaskToken(token))
	return nil
}

func runTokenClear(cmd *cobra.Command, args []string) error {
	if err := repository.NewCredentialManager().DeleteToken(); err != nil {
		return err
	}
	fmt.Println("Token removed from the system keyring.")
	return nil
}
