package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/mindfulme/backend/internal/app"
	moodModel "github.com/zhouzirui/mindfulme/backend/internal/model/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/service/account"
)

func moodLabels() []string {
	labels := moodModel.Labels()
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, string(l))
	}
	return out
}

func ownerID(ctx context.Context, a *app.App) string {
	if u, ok := a.Sessions.CurrentUser(ctx); ok {
		return u.ID
	}
	return ""
}

func newMoodCmd(run runner) *cobra.Command {
	moodCmd := &cobra.Command{
		Use:   "mood",
		Short: "Record, list and delete mood entries",
	}

	var note string
	addCmd := &cobra.Command{
		Use:       fmt.Sprintf("add %s", strings.Join(moodLabels(), "|")),
		Short:     "Record how you feel right now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: moodLabels(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				tracked, err := a.Moods.Track(ctx, ownerID(ctx, a), args[0], note)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tracked)
			})
		},
	}
	addCmd.Flags().StringVarP(&note, "note", "n", "", "optional note")

	var recent int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List mood entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				if recent > 0 {
					entries, _ := a.Moods.Recent(ctx, ownerID(ctx, a), recent)
					return printEntries(cmd, entries)
				}
				return printEntries(cmd, a.Moods.List(ctx))
			})
		},
	}
	listCmd.Flags().IntVar(&recent, "recent", 0, "only show the N most recent entries")

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a mood entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Moods.Delete(ctx, ownerID(ctx, a), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	moodCmd.AddCommand(addCmd, listCmd, deleteCmd)
	return moodCmd
}

func printEntries(cmd *cobra.Command, entries []moodModel.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No mood entries found.")
		return nil
	}
	return printJSON(cmd.OutOrStdout(), entries)
}

func newStatsCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show mood analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Moods.Analytics(ctx))
			})
		},
	}
}

func newChatCmd(run runner) *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the wellness companion",
	}

	sendCmd := &cobra.Command{
		Use:   "send [message...]",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				name := ""
				if u, ok := a.Sessions.CurrentUser(ctx); ok {
					name = u.Name
				}
				out := cmd.OutOrStdout()
				_, err := a.Chat.Stream(ctx, name, strings.Join(args, " "), func(delta string) error {
					_, err := fmt.Fprint(out, delta)
					return err
				})
				fmt.Fprintln(out)
				return err
			})
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				name := ""
				if u, ok := a.Sessions.CurrentUser(ctx); ok {
					name = u.Name
				}
				for _, msg := range a.Chat.History(ctx, name) {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", msg.Sender, msg.Text)
				}
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Chat.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Chat history cleared.")
				return nil
			})
		},
	}

	chatCmd.AddCommand(sendCmd, historyCmd, clearCmd)
	return chatCmd
}

func newExportCmd(run runner) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all data as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				export := a.Accounts.Export(ctx)
				if outPath == "" {
					return printJSON(cmd.OutOrStdout(), export)
				}
				if outPath == "." {
					outPath = account.ExportFileName(a.Accounts.Now())
				}

				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				if err := printJSON(f, export); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", `output file ("." picks the default name)`)
	return cmd
}
