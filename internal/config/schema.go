package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Violation is a single field-level schema problem.
type Violation struct {
	Field    string `json:"field"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

var (
	unmarshalerType = reflect.TypeOf((*yaml.Unmarshaler)(nil)).Elem()

	fieldIndexCache sync.Map // reflect.Type -> map[string]reflect.StructField
)

// yamlFields maps the yaml key of every exported field of t to the field.
func yamlFields(t reflect.Type) map[string]reflect.StructField {
	if cached, ok := fieldIndexCache.Load(t); ok {
		return cached.(map[string]reflect.StructField)
	}
	fields := make(map[string]reflect.StructField, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := yamlName(f)
		if name == "-" {
			continue
		}
		fields[name] = f
	}
	fieldIndexCache.Store(t, fields)
	return fields
}

func yamlName(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// checkNode walks a document node against the Go type it will decode into and
// reports unknown keys and scalar kind mismatches with their field paths.
func checkNode(node *yaml.Node, t reflect.Type, path string) []Violation {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		return checkNode(node.Content[0], t, path)
	}
	if node.Kind == yaml.AliasNode {
		return checkNode(node.Alias, t, path)
	}
	if isNull(node) {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if reflect.PointerTo(t).Implements(unmarshalerType) {
		if t == reflect.TypeOf(PluginDeclaration{}) {
			return pluginDeclarationProblems(node, path)
		}
		return nil
	}

	switch t.Kind() {
	case reflect.Struct:
		if node.Kind != yaml.MappingNode {
			return []Violation{mismatch(path, "mapping", node)}
		}
		var out []Violation
		fields := yamlFields(t)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			f, ok := fields[key.Value]
			if !ok {
				out = append(out, Violation{
					Field:    joinPath(path, key.Value),
					Expected: "known field",
					Actual:   key.Value,
					Message:  "unknown field",
				})
				continue
			}
			out = append(out, checkNode(val, f.Type, joinPath(path, key.Value))...)
		}
		return out
	case reflect.Slice:
		if node.Kind != yaml.SequenceNode {
			return []Violation{mismatch(path, "list", node)}
		}
		var out []Violation
		for i, item := range node.Content {
			out = append(out, checkNode(item, t.Elem(), fmt.Sprintf("%s[%d]", path, i))...)
		}
		return out
	case reflect.Map:
		if node.Kind != yaml.MappingNode {
			return []Violation{mismatch(path, "mapping", node)}
		}
		if t.Elem().Kind() == reflect.Interface {
			return nil
		}
		var out []Violation
		for i := 0; i+1 < len(node.Content); i += 2 {
			out = append(out, checkNode(node.Content[i+1], t.Elem(), fmt.Sprintf("%s[%s]", path, node.Content[i].Value))...)
		}
		return out
	case reflect.Bool:
		if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!bool" {
			return []Violation{mismatch(path, "boolean", node)}
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
			return []Violation{mismatch(path, "integer", node)}
		}
	case reflect.String:
		if node.Kind != yaml.ScalarNode {
			return []Violation{mismatch(path, "string", node)}
		}
	}
	return nil
}

func mismatch(path, expected string, node *yaml.Node) Violation {
	return Violation{
		Field:    path,
		Expected: expected,
		Actual:   describeNode(node),
		Message:  "expected " + expected,
	}
}

func describeNode(node *yaml.Node) string {
	if node == nil {
		return "null"
	}
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		return node.Value
	default:
		return node.ShortTag()
	}
}

func joinPath(parent, child string) string {
	switch {
	case parent == "":
		return child
	case strings.HasPrefix(child, "["):
		return parent + child
	default:
		return parent + "." + child
	}
}
