package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/supplier-cli/internal/model"
	"github.com/sells-group/supplier-cli/internal/store"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record and review supplier feedback",
}

// -- feedback add --

var feedbackAddCmd = &cobra.Command{
	Use:   "add <supplier-name>",
	Short: "Record feedback on a supplier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		comment, _ := cmd.Flags().GetString("comment")
		rating, _ := cmd.Flags().GetInt("rating")
		fb := model.Feedback{SupplierName: args[0], Comment: comment, Rating: rating}
		if err := fb.Validate(); err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		saved, err := st.SaveFeedback(ctx, fb)
		if err != nil {
			return eris.Wrap(err, "feedback add")
		}
		fmt.Fprintf(os.Stdout, "Saved feedback %s for %s\n", saved.ID, saved.SupplierName)
		return nil
	},
}

// -- feedback list --

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded feedback, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		supplier, _ := cmd.Flags().GetString("supplier")
		limit, _ := cmd.Flags().GetInt("limit")

		items, err := st.ListFeedback(ctx, store.FeedbackFilter{SupplierName: supplier, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "feedback list")
		}
		if len(items) == 0 {
			fmt.Fprintln(os.Stderr, "No feedback found.")
			return nil
		}
		formatFeedbackList(os.Stdout, items)
		return nil
	},
}

func init() {
	feedbackAddCmd.Flags().String("comment", "", "free-text comment")
	feedbackAddCmd.Flags().Int("rating", 0, fmt.Sprintf("rating from %d to %d", model.MinRating, model.MaxRating))

	feedbackListCmd.Flags().String("supplier", "", "filter by supplier name")
	feedbackListCmd.Flags().Int("limit", 50, "max number of entries to display")

	feedbackCmd.AddCommand(feedbackAddCmd)
	feedbackCmd.AddCommand(feedbackListCmd)
	rootCmd.AddCommand(feedbackCmd)
}

// formatFeedbackList writes a tabular list of feedback to out.
func formatFeedbackList(out io.Writer, items []model.Feedback) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSUPPLIER\tRATING\tCREATED\tCOMMENT")
	for _, fb := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(fb.ID), fb.SupplierName, strings.Repeat("*", fb.Rating),
			fb.CreatedAt.Format("2006-01-02 15:04"), truncate(fb.Comment, 60))
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
