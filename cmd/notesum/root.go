package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"notesum-backend/internal/bootstrap"
	"notesum-backend/internal/documents"
	"notesum-backend/internal/extract"
	"notesum-backend/internal/shared/config"
)

const defaultCLIUser = "cli:local"

var (
	userID     string
	sourceType string
)

var rootCmd = &cobra.Command{
	Use:   "notesum",
	Short: "extract and summarize documents from the command line",
	Example: `notesum extract https://www.youtube.com/watch?v=<id>
notesum extract ./lecture.mp3 --type audio
notesum summarize notes.txt
notesum process https://example.org/post
notesum token <user-id> --ttl 1h`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", defaultCLIUser, "owner recorded on created documents")
	rootCmd.PersistentFlags().StringVarP(&sourceType, "type", "t", "", "source type: pdf, youtube, article, audio (classified when empty)")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(summarizeCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(tokenCmd())

	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildApp() (*bootstrap.App, error) {
	return bootstrap.Build(config.Load(), bootstrap.Options{SkipRouter: true})
}

// createDocument records arg as a link when it is a URL and uploads it otherwise.
func createDocument(ctx context.Context, app *bootstrap.App, arg string) (documents.Document, error) {
	if extract.IsHTTPURL(arg) {
		return app.DocumentsService.CreateLink(ctx, userID, arg, sourceType, "")
	}
	f, err := os.Open(arg)
	if err != nil {
		return documents.Document{}, err
	}
	defer f.Close()
	return app.DocumentsService.Upload(ctx, userID, filepath.Base(arg), sourceType, f)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
