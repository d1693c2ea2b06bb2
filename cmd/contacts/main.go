// Command contacts reads the Postgres contact inbox: it lists recent
// messages and exports them to a spreadsheet.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"suitcraft.com/web/internal/config"
	"suitcraft.com/web/internal/contact"
)

const exportLimit = 10000

// inbox is the slice of *contact.Inbox the commands need.
type inbox interface {
	List(ctx context.Context, opts contact.ListOptions) ([]contact.Message, error)
	Close() error
}

type openFunc func(ctx context.Context, databaseURL string) (inbox, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(openPostgres).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func openPostgres(ctx context.Context, databaseURL string) (inbox, error) {
	return contact.OpenInbox(ctx, databaseURL)
}

func newRootCmd(open openFunc) *cobra.Command {
	var databaseURL string
	root := &cobra.Command{
		Use:           "contacts",
		Short:         "Read the SuitCraft contact inbox",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (defaults to SUITCRAFT_WEB_DATABASE_URL)")

	connect := func(cmd *cobra.Command) (inbox, error) {
		url := databaseURL
		if url == "" {
			url = resolveDatabaseURL()
		}
		if url == "" {
			return nil, errors.New("no database configured: pass --database-url or set SUITCRAFT_WEB_DATABASE_URL")
		}
		ib, err := open(cmd.Context(), url)
		if err != nil {
			if contact.IsUnavailable(err) {
				return nil, fmt.Errorf("database unavailable: %w", err)
			}
			return nil, err
		}
		return ib, nil
	}

	root.AddCommand(newListCmd(connect), newExportCmd(connect))
	return root
}

// resolveDatabaseURL reads the URL the web server would use, honouring .env.
func resolveDatabaseURL() string {
	cfg, err := config.Load()
	if err == nil {
		return cfg.Contact.DatabaseURL
	}
	// The inbox only needs the URL; unrelated server settings may be incomplete.
	return strings.TrimSpace(os.Getenv("SUITCRAFT_WEB_DATABASE_URL"))
}

func newListCmd(connect func(*cobra.Command) (inbox, error)) *cobra.Command {
	var (
		limit int
		since string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent contact messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseSince(since)
			if err != nil {
				return err
			}
			ib, err := connect(cmd)
			if err != nil {
				return err
			}
			defer ib.Close()

			msgs, err := ib.List(cmd.Context(), contact.ListOptions{Since: from, Limit: limit})
			if err != nil {
				return err
			}
			return printMessages(cmd, msgs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", contact.DefaultListLimit, "maximum number of messages")
	cmd.Flags().StringVar(&since, "since", "", "only messages submitted at or after this RFC3339 time")
	return cmd
}

func newExportCmd(connect func(*cobra.Command) (inbox, error)) *cobra.Command {
	var (
		out   string
		since string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export contact messages to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseSince(since)
			if err != nil {
				return err
			}
			ib, err := connect(cmd)
			if err != nil {
				return err
			}
			defer ib.Close()

			msgs, err := ib.List(cmd.Context(), contact.ListOptions{Since: from, Limit: exportLimit})
			if err != nil {
				return err
			}
			if err := exportWorkbook(out, msgs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d messages to %s\n", len(msgs), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "destination .xlsx file")
	cmd.Flags().StringVar(&since, "since", "", "only messages submitted at or after this RFC3339 time")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func parseSince(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: want RFC3339, e.g. 2024-05-01T00:00:00Z", v)
	}
	return t, nil
}

func printMessages(cmd *cobra.Command, msgs []contact.Message) error {
	if len(msgs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no messages")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBMITTED\tNAME\tEMAIL\tMESSAGE")
	for _, m := range msgs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.SubmittedAt.UTC().Format(time.RFC3339), m.Name, m.Email, preview(m.Body, 48))
	}
	return tw.Flush()
}

// preview returns the first line of body, cut to limit runes.
func preview(body string, limit int) string {
	line, _, _ := strings.Cut(body, "\n")
	r := []rune(strings.TrimSpace(line))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit-1]) + "…"
}
