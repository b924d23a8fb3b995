package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxtriage/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to the Gmail account",
		Long: `Run the one-time Google OAuth flow. Prints an authorization URL, waits
for the code on stdin, and caches the resulting token for all other
commands. Requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if google.HasToken() {
				fmt.Println("A cached token already exists; continuing will replace it.")
			}

			url, err := google.GetAuthURL()
			if err != nil {
				return fmt.Errorf("failed to build authorization URL: %w", err)
			}

			fmt.Printf("Open the following URL in your browser:\n\n%s\n\n", url)
			fmt.Print("Enter the authorization code: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}

			if err := google.SaveToken(context.Background(), code); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Println("Authorization complete. Token saved.")
			return nil
		},
	}
	return cmd
}
