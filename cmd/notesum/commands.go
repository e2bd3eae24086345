package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"notesum-backend/internal/extract"
	"notesum-backend/internal/failure"
	"notesum-backend/internal/shared/auth"
	"notesum-backend/internal/summaries"
	"notesum-backend/internal/summarize"
)

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url|file>",
		Short: "extract normalized text from a link or a local PDF/audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			doc, err := createDocument(ctx, app, args[0])
			if err != nil {
				return err
			}
			result, err := app.Extractor.Extract(ctx, extract.Source{
				DocumentID: doc.ID,
				Type:       doc.SourceType,
				Location:   doc.SourceLocation,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", failure.UserMessage(err), err)
			}
			return printJSON(cmd, result)
		},
	}
}

func summarizeCmd() *cobra.Command {
	var title string
	command := &cobra.Command{
		Use:   "summarize [file|-]",
		Short: "summarize plain text read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			app, err := buildApp()
			if err != nil {
				return err
			}
			st := extract.SourceArticle
			if parsed, ok := extract.ParseSourceType(sourceType); ok {
				st = parsed
			}
			result, err := app.Summarizer.Summarize(cmd.Context(), text, summarize.Options{SourceType: st, Title: title})
			if err != nil {
				return fmt.Errorf("%s: %w", failure.UserMessage(err), err)
			}
			return printJSON(cmd, map[string]any{
				"content":     result.Content,
				"keyPoints":   result.KeyPoints,
				"overview":    result.Overview,
				"sections":    result.Sections,
				"chatOptions": result.ChatOptions,
				"wordCount":   result.WordCount,
			})
		},
	}
	command.Flags().StringVar(&title, "title", "", "title passed to the summarizer")
	return command
}

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <url|file>",
		Short: "run extraction, summarization, and persistence for a link or file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			doc, err := createDocument(ctx, app, args[0])
			if err != nil {
				return err
			}
			outcome, err := app.ProcessingService.ProcessDocument(ctx, userID, doc.ID)
			if err != nil {
				return fmt.Errorf("%s: %w", failure.UserMessage(err), err)
			}
			if outcome.Empty {
				fmt.Fprintln(cmd.ErrOrStderr(), outcome.Message)
				return nil
			}
			if outcome.Summary == nil {
				return fmt.Errorf("no summary produced for %s", doc.ID)
			}
			return printJSON(cmd, summaries.ToResponse(*outcome.Summary))
		},
	}
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration
	command := &cobra.Command{
		Use:   "token <user-id>",
		Short: "issue a bearer token for local API testing (needs JWT_SECRET)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub := strings.TrimSpace(args[0])
			if sub == "" {
				return fmt.Errorf("user id is required")
			}
			token, err := auth.SignJWT(sub, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	command.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return command
}
