package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/plugin/builtin"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct{}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	doc, _, err := root.loadDocument()
	if err != nil {
		return err
	}
	orch := build.NewOrchestrator(builtin.NewRegistry(), build.WithLogger(runLogger(g)))
	plugins, err := orch.Check(context.Background(), doc)
	if err != nil {
		writeIssues(os.Stderr, nil, err)
		return err
	}
	fmt.Printf("%s is valid (plugins: %s)\n", doc.Path, strings.Join(plugins, ", "))
	return nil
}
