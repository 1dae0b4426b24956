package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Format is the syntax of a configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Document is a loaded, not yet validated configuration document.
type Document struct {
	Path   string
	Format Format
	Root   *yaml.Node
	// Hash is the sha256 of the document after variable expansion.
	Hash string
}

// DefaultConfigNames are tried in order when no config path is given.
var DefaultConfigNames = []string{"docsite.yaml", "docsite.yml", "docsite.toml", "docsite.json"}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// FindConfig returns the first default config file present in dir.
func FindConfig(dir string) (string, error) {
	for _, name := range DefaultConfigNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.NotFoundError("no configuration file found").
		WithContext("dir", dir).
		WithContext("candidates", strings.Join(DefaultConfigNames, ", ")).
		Build()
}

// LoadFile reads a configuration document. ${VAR} references are expanded
// from the process environment, then from .env and .env.local next to the
// file. The env files are read on every call and never exported.
func LoadFile(path string) (*Document, error) {
	dir := filepath.Dir(path)
	dotenv := map[string]string{}
	for _, name := range []string{".env", ".env.local"} {
		envPath := filepath.Join(dir, name)
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		values, err := godotenv.Read(envPath)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "read env file").
				WithPath(envPath).
				Build()
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	// #nosec G304 -- the config path is chosen by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read config file").
			WithPath(path).
			Build()
	}

	format, err := formatFor(path)
	if err != nil {
		return nil, err
	}
	doc, err := parse(data, format, envLookup(dotenv))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse config file").
			WithPath(path).
			Build()
	}
	doc.Path = path
	return doc, nil
}

// Parse expands ${VAR} references in data and parses it as format.
func Parse(data []byte, format Format) (*Document, error) {
	return parse(data, format, os.Getenv)
}

func parse(data []byte, format Format, lookup func(string) string) (*Document, error) {
	expanded := expandEnv(data, lookup)
	sum := sha256.Sum256(expanded)

	var root yaml.Node
	switch format {
	case FormatYAML, FormatJSON:
		if err := yaml.Unmarshal(expanded, &root); err != nil {
			return nil, fmt.Errorf("decode %s: %w", format, err)
		}
	case FormatTOML:
		var raw map[string]any
		if _, err := toml.NewDecoder(bytes.NewReader(expanded)).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if err := root.Encode(raw); err != nil {
			return nil, fmt.Errorf("convert toml document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	return &Document{Format: format, Root: &root, Hash: hex.EncodeToString(sum[:])}, nil
}

// ExpandEnv replaces ${VAR} with the value of VAR. Unset variables expand to
// the empty string; bare $VAR is left alone.
func ExpandEnv(data []byte) []byte {
	return expandEnv(data, os.Getenv)
}

func expandEnv(data []byte, lookup func(string) string) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(lookup(string(name)))
	})
}

// envLookup resolves a variable from the process environment first and
// falls back to values read from env files.
func envLookup(dotenv map[string]string) func(string) string {
	return func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return dotenv[name]
	}
}

func formatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.ConfigError("unsupported config file extension").
			WithPath(path).
			Build()
	}
}
