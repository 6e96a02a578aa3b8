package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/glabrego/spacedeck/internal/app"
	"github.com/glabrego/spacedeck/internal/content"
)

var flagSource string

var cardsCmd = &cobra.Command{
	Use:   "cards [query]",
	Short: "Print one aggregation pass of news cards",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := content.Filter{Source: flagSource}
		if len(args) == 1 {
			filter.Query = args[0]
		}
		if filter.Source != "" {
			if _, err := content.ParseSource(filter.Source); err != nil {
				return err
			}
		}

		rt, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		printCards(cmd.OutOrStdout(), rt.service.Aggregate(ctx, filter))
		return nil
	},
}

var papersCmd = &cobra.Command{
	Use:   "papers [query]",
	Short: "Print Crossref papers for a query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		rt, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		list := rt.service.LoadPapers(ctx, query)
		if list.Failed {
			return fmt.Errorf("load papers: %w", list.Err)
		}
		printPapers(cmd.OutOrStdout(), list)
		return nil
	},
}

func init() {
	cardsCmd.Flags().StringVar(&flagSource, "source", "", "only show cards from source: NASA, ESA or ISRO")
}

func printCards(w io.Writer, items []content.DisplayItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No cards")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "[%s] %s\n", it.Source, it.Title)
		if s := strings.TrimSpace(it.Summary); s != "" {
			fmt.Fprintf(w, "    %s\n", content.Truncate(s, 160))
		}
		if it.Link != "" {
			fmt.Fprintf(w, "    %s\n", it.Link)
		}
	}
}

func printPapers(w io.Writer, list app.PaperList) {
	if len(list.Papers) == 0 {
		fmt.Fprintf(w, "No results for %q\n", list.Query)
		return
	}
	for i, p := range list.Papers {
		fmt.Fprintf(w, "%d. %s\n", i+1, p.Title)
		if by := p.Byline(); by != "" {
			fmt.Fprintf(w, "   %s\n", by)
		}
		if p.Link != "" {
			fmt.Fprintf(w, "   %s\n", p.Link)
		}
	}
}
