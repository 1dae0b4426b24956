package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
)

// HistoryCmd groups the build history subcommands.
type HistoryCmd struct {
	List        HistoryListCmd        `cmd:"" default:"withargs" help:"List recent builds"`
	Show        HistoryShowCmd        `cmd:"" help:"Show every locale result of a build"`
	Transitions HistoryTransitionsCmd `cmd:"" help:"Show the state transitions of a build"`
}

// HistoryListCmd implements 'history list'.
type HistoryListCmd struct {
	Limit int  `short:"n" help:"Number of entries to show (0 for all)" default:"20"`
	JSON  bool `help:"Print entries as JSON"`
}

func (h *HistoryListCmd) Run(root *CLI) error {
	store, err := requireHistory(root)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit := h.Limit
	if limit <= 0 {
		limit = -1
	}
	entries, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if h.JSON {
		return writeJSON(os.Stdout, entries)
	}
	writeEntries(os.Stdout, entries)
	return nil
}

// HistoryShowCmd implements 'history show'.
type HistoryShowCmd struct {
	BuildID string `arg:"" name:"build-id" help:"Build identifier"`
	JSON    bool   `help:"Print entries as JSON"`
}

func (h *HistoryShowCmd) Run(root *CLI) error {
	store, err := requireHistory(root)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Get(context.Background(), h.BuildID)
	if err != nil {
		return err
	}
	if h.JSON {
		return writeJSON(os.Stdout, entries)
	}
	writeEntries(os.Stdout, entries)
	for _, e := range entries {
		for _, is := range e.Issues {
			fmt.Printf("  [%s] %s %s: %s\n", e.Locale, is.Stage, is.Field, is.Message)
		}
	}
	return nil
}

// HistoryTransitionsCmd implements 'history transitions'.
type HistoryTransitionsCmd struct {
	BuildID string `arg:"" name:"build-id" help:"Build identifier"`
}

func (h *HistoryTransitionsCmd) Run(root *CLI) error {
	store, err := requireHistory(root)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	transitions, err := store.Transitions(context.Background(), h.BuildID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "AT\tLOCALE\tFROM\tTO")
	for _, t := range transitions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.At.Format(time.RFC3339Nano), t.Locale, t.From, t.To)
	}
	return tw.Flush()
}

func requireHistory(root *CLI) (*history.SQLiteStore, error) {
	if root.HistoryDB == "" {
		return nil, errors.ConfigError("no history database configured (use --history-db or DOCSITE_HISTORY)").Build()
	}
	if _, err := os.Stat(root.HistoryDB); err != nil {
		return nil, errors.NotFoundError("history database does not exist").
			WithPath(root.HistoryDB).
			Build()
	}
	return history.NewSQLiteStore(root.HistoryDB)
}

func writeEntries(w io.Writer, entries []history.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tLOCALE\tSTATUS\tSTAGE\tSTARTED\tDURATION\tROUTES\tWARNINGS")
	for _, e := range entries {
		stage := e.FailedStage
		if stage == "" {
			stage = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			e.BuildID, e.Locale, e.Status, stage,
			e.StartedAt.Format(time.RFC3339), e.Duration.Round(time.Millisecond), e.Routes, e.Warnings)
	}
	_ = tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode json").Build()
	}
	return nil
}
