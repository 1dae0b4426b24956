package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts the three declaration shapes found in site configs:
//
//	plugins:
//	  - sitemap
//	  - [api-reference, {route: /api-reference}]
//	  - {name: api-reference, options: {route: /api-reference}}
//
// Shape errors are returned as *yaml.TypeError so decoding continues and every
// problem is reported together.
func (d *PluginDeclaration) UnmarshalYAML(node *yaml.Node) error {
	problems := pluginDeclarationProblems(node, "")
	if len(problems) > 0 {
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			msgs = append(msgs, fmt.Sprintf("line %d: %s", node.Line, p.Message))
		}
		return &yaml.TypeError{Errors: msgs}
	}

	switch node.Kind {
	case yaml.ScalarNode:
		d.Name = node.Value
		return nil
	case yaml.SequenceNode:
		d.Name = node.Content[0].Value
		if len(node.Content) == 2 {
			return decodeOptions(node.Content[1], &d.Options)
		}
		return nil
	default:
		var raw struct {
			Name    string    `yaml:"name"`
			Options yaml.Node `yaml:"options"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		d.Name = raw.Name
		if raw.Options.Kind != 0 {
			return decodeOptions(&raw.Options, &d.Options)
		}
		return nil
	}
}

// MarshalYAML always emits the mapping form so a resolved config re-validates cleanly.
func (d PluginDeclaration) MarshalYAML() (any, error) {
	out := map[string]any{"name": d.Name}
	if len(d.Options) > 0 {
		out["options"] = d.Options
	}
	return out, nil
}

func decodeOptions(node *yaml.Node, into *map[string]any) error {
	if isNull(node) {
		return nil
	}
	return node.Decode(into)
}

func isNull(node *yaml.Node) bool {
	return node == nil || node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null")
}

// pluginDeclarationProblems reports shape violations for a declaration node.
func pluginDeclarationProblems(node *yaml.Node, path string) []Violation {
	var out []Violation
	add := func(field, expected, actual, msg string) {
		out = append(out, Violation{Field: field, Expected: expected, Actual: actual, Message: msg})
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() != "!!str" || node.Value == "" {
			add(path, "plugin name", node.Value, "plugin declaration must be a non-empty name")
		}
	case yaml.SequenceNode:
		if len(node.Content) == 0 || len(node.Content) > 2 {
			add(path, "[name, options]", fmt.Sprintf("%d element(s)", len(node.Content)), "plugin declaration list must be [name] or [name, options]")
			return out
		}
		if name := node.Content[0]; name.Kind != yaml.ScalarNode || name.ShortTag() != "!!str" || name.Value == "" {
			add(joinPath(path, "[0]"), "plugin name", describeNode(name), "plugin name must be a non-empty string")
		}
		if len(node.Content) == 2 {
			if opts := node.Content[1]; !isNull(opts) && opts.Kind != yaml.MappingNode {
				add(joinPath(path, "[1]"), "mapping", describeNode(opts), "plugin options must be a mapping")
			}
		}
	case yaml.MappingNode:
		var hasName bool
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			switch key.Value {
			case "name":
				hasName = true
				if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!str" || val.Value == "" {
					add(joinPath(path, "name"), "string", describeNode(val), "plugin name must be a non-empty string")
				}
			case "options":
				if !isNull(val) && val.Kind != yaml.MappingNode {
					add(joinPath(path, "options"), "mapping", describeNode(val), "plugin options must be a mapping")
				}
			default:
				add(joinPath(path, key.Value), "known field", key.Value, "unknown field")
			}
		}
		if !hasName {
			add(joinPath(path, "name"), "string", "", "is required")
		}
	default:
		add(path, "plugin declaration", describeNode(node), "plugin declaration must be a name, list or mapping")
	}
	return out
}
