package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/gopair/internal/config"
	"github.com/nextlevelbuilder/gopair/internal/journal"
)

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the local history of permission and restriction changes",
	}
	cmd.AddCommand(journalListCmd())
	cmd.AddCommand(journalPruneCmd())
	return cmd
}

func openJournal() *journal.Store {
	cfg, _ := mustLoadConfig()
	store, err := journal.Open(config.ExpandHome(cfg.Journal.Path), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return store
}

func journalListCmd() *cobra.Command {
	var q journal.Query
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent entries, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			store := openJournal()
			defer store.Close()
			entries, err := store.Recent(cmd.Context(), q)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			if len(entries) == 0 {
				fmt.Println("No entries.")
				return
			}
			renderEntries(os.Stdout, entries)
		},
	}
	cmd.Flags().StringVar(&q.UID, "uid", "", "only entries for this pair")
	cmd.Flags().StringVar(&q.Kind, "kind", "", "only entries of this kind (permissions, hardcore, pair, connection)")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 50, "maximum entries")
	return cmd
}

func journalPruneCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old entries",
		Run: func(cmd *cobra.Command, args []string) {
			store := openJournal()
			defer store.Close()
			n, err := store.Prune(cmd.Context(), olderThan)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("Pruned %d entries.\n", n)
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age cutoff")
	return cmd
}

// renderEntries writes an aligned table. Aliases and UIDs may hold wide
// characters, so widths are measured in cells.
func renderEntries(w io.Writer, entries []journal.Entry) {
	header := []string{"TIME", "KIND", "UID", "ENACTOR", "DETAIL"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.At().Local().Format("2006-01-02 15:04:05"),
			e.Kind,
			e.UID,
			e.Enactor,
			runewidth.Truncate(e.Detail, 60, "…"),
		}
	}

	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for c, cell := range row {
			widths[c] = max(widths[c], runewidth.StringWidth(cell))
		}
	}

	writeRow := func(row []string) {
		var b strings.Builder
		for c, cell := range row {
			if c == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[c]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
}
