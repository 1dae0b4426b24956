package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" help:"Site directory to scaffold" default:"." type:"path"`
	Force bool   `help:"Overwrite an existing configuration file"`
}

// scaffold lists the starter files written next to the configuration. They
// satisfy every reference in the example configuration.
var scaffold = []struct {
	path    string
	content string
}{
	{"docs/cli.md", "---\nsidebar_position: 1\n---\n# CLI\n\nWelcome to the av_llm documentation.\n\n## Usage\n\nRun `docsite build` to render this site.\n"},
	{"src/pages/index.md", "# av_llm\n\nTools for LLM Explorer. Start with the [CLI guide](/docs/cli.md).\n"},
	{"sidebars.yaml", "docs:\n  - cli\n"},
	{"src/css/custom.css", ":root {\n  --docsite-color-primary: #2e8555;\n}\n"},
	{"static/img/logo.svg", "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"32\" height=\"32\"><circle cx=\"16\" cy=\"16\" r=\"14\" fill=\"#2e8555\"/></svg>\n"},
	{"static/img/favicon.ico", ""},
	{"static/av_llm_api.json", "{\n  \"openapi\": \"3.0.0\",\n  \"info\": {\"title\": \"av_llm\", \"version\": \"1.0.0\"},\n  \"paths\": {}\n}\n"},
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	cfgPath := root.Config
	if cfgPath == "" {
		cfgPath = filepath.Join(i.Dir, config.DefaultConfigNames[0])
	}
	siteDir := filepath.Dir(cfgPath)

	fmt.Println("Initializing docsite project")
	fmt.Printf("Writing configuration to %s\n", cfgPath)
	if err := config.WriteExample(cfgPath, i.Force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	written, err := writeScaffold(siteDir)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d starter files in %s\n", written, siteDir)
	return nil
}

// writeScaffold writes the starter files that do not exist yet.
func writeScaffold(dir string) (int, error) {
	written := 0
	for _, f := range scaffold {
		path := filepath.Join(dir, filepath.FromSlash(f.path))
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return written, errors.WrapError(err, errors.CategoryFileSystem, "create directory").WithPath(path).Build()
		}
		if err := os.WriteFile(path, []byte(f.content), 0o600); err != nil {
			return written, errors.WrapError(err, errors.CategoryFileSystem, "write starter file").WithPath(path).Build()
		}
		written++
	}
	return written, nil
}
