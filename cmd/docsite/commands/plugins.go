package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/docsite/internal/plugin/builtin"
)

// PluginsCmd implements the 'plugins' command.
type PluginsCmd struct{}

func (p *PluginsCmd) Run() error {
	registry := builtin.NewRegistry()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PLUGIN\tDESCRIPTION")
	for _, name := range registry.Names() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", name, registry.Describe(name))
	}
	_, _ = fmt.Fprintln(tw, "\nPRESET\t")
	for _, name := range registry.PresetNames() {
		_, _ = fmt.Fprintf(tw, "%s\t\n", name)
	}
	return tw.Flush()
}
