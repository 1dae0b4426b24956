package contentdocs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/plugin"
)

// SidebarItem is one entry of a sidebar file. A bare string is a doc id.
//
//	docs:
//	  - intro
//	  - type: category
//	    label: Guides
//	    items: [guides/setup, guides/deploy]
//	  - type: autogenerated
//	    dirName: reference
type SidebarItem struct {
	Type    string        `yaml:"type"`
	ID      string        `yaml:"id"`
	Label   string        `yaml:"label"`
	DirName string        `yaml:"dirName"`
	Items   []SidebarItem `yaml:"items"`
}

// UnmarshalYAML accepts the shorthand string form.
func (s *SidebarItem) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Type = "doc"
		s.ID = node.Value
		return nil
	}
	type raw SidebarItem
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*s = SidebarItem(r)
	if s.Type == "" {
		s.Type = "doc"
	}
	return nil
}

// Sidebars maps sidebar ids to their items.
type Sidebars map[string][]SidebarItem

// LoadSidebars reads a YAML sidebar file.
func LoadSidebars(path string) (Sidebars, error) {
	// #nosec G304 -- sidebar path comes from the site config.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidebar file: %w", err)
	}
	var sb Sidebars
	if err := yaml.Unmarshal(data, &sb); err != nil {
		return nil, fmt.Errorf("parse sidebar file %s: %w", path, err)
	}
	return sb, nil
}

type placement struct {
	sidebar  string
	category string
	position int
}

// assign computes the sidebar, category and position of every doc listed in
// the sidebars. Docs that are not listed get no entry.
func (sb Sidebars) assign(docIDs []string) (map[string]placement, error) {
	known := make(map[string]bool, len(docIDs))
	for _, id := range docIDs {
		known[id] = true
	}

	out := make(map[string]placement)
	ids := make([]string, 0, len(sb))
	for id := range sb {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, sidebar := range ids {
		pos := 0
		var walk func(items []SidebarItem, category string) error
		walk = func(items []SidebarItem, category string) error {
			for _, item := range items {
				switch item.Type {
				case "doc":
					if !known[item.ID] {
						return fmt.Errorf("sidebar %s references unknown doc %q", sidebar, item.ID)
					}
					pos++
					out[item.ID] = placement{sidebar: sidebar, category: category, position: pos}
				case "category":
					label := item.Label
					if category != "" {
						label = category
					}
					if err := walk(item.Items, label); err != nil {
						return err
					}
				case "autogenerated":
					prefix := strings.Trim(item.DirName, "/")
					for _, id := range docIDs {
						if prefix != "" && prefix != "." && !strings.HasPrefix(id, prefix+"/") {
							continue
						}
						if _, placed := out[id]; placed {
							continue
						}
						cat := category
						if cat == "" {
							cat = topCategory(strings.TrimPrefix(id, prefix+"/"))
						}
						out[id] = placement{sidebar: sidebar, category: cat}
					}
				default:
					return fmt.Errorf("sidebar %s: unsupported item type %q", sidebar, item.Type)
				}
			}
			return nil
		}
		if err := walk(sb[sidebar], ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Plugin) applySidebarFile(bc *plugin.BuildContext, routes []plugin.Route) error {
	sidebarPath := bc.SourcePath(p.opts.SidebarPath)
	switch strings.ToLower(filepath.Ext(sidebarPath)) {
	case ".yaml", ".yml", ".json":
	default:
		bc.PluginLogger(Name).Warn("Sidebar file is not YAML, using autogenerated sidebar",
			logfields.Path(sidebarPath))
		return nil
	}

	sb, err := LoadSidebars(sidebarPath)
	if err != nil {
		return err
	}
	ids := make([]string, len(routes))
	for i, r := range routes {
		ids[i] = r.DocID
	}
	placements, err := sb.assign(ids)
	if err != nil {
		return err
	}

	for i := range routes {
		pl, ok := placements[routes[i].DocID]
		if !ok {
			routes[i].Sidebar = ""
			routes[i].Category = ""
			continue
		}
		routes[i].Sidebar = pl.sidebar
		routes[i].Category = pl.category
		if pl.position > 0 {
			routes[i].SidebarPosition = pl.position
		}
	}
	return nil
}
