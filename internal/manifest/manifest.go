// Package manifest describes the manifest.json written at the root of every
// emitted site: the build inputs, the plugins that ran and a fingerprint of
// each output route.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/inful/mdfp"
)

// FileName is the manifest file name inside the output directory.
const FileName = "manifest.json"

// BuildManifest is a complete record of one locale build.
type BuildManifest struct {
	ID        string       `json:"id"`
	Locale    string       `json:"locale"`
	BaseURL   string       `json:"base_url"`
	Timestamp time.Time    `json:"timestamp"`
	Inputs    Inputs       `json:"inputs"`
	Plugins   []string     `json:"plugins"`
	Routes    []RouteEntry `json:"routes"`
	Outputs   Outputs      `json:"outputs"`
	Warnings  []string     `json:"warnings,omitempty"`
	Status    string       `json:"status"`
	Duration  int64        `json:"duration_ms"`
}

// Inputs captures the inputs of the build.
type Inputs struct {
	ConfigPath   string `json:"config_path,omitempty"`
	ConfigHash   string `json:"config_hash"`
	SourceCommit string `json:"source_commit,omitempty"`
	SourceBranch string `json:"source_branch,omitempty"`
	SourceDirty  bool   `json:"source_dirty,omitempty"`
}

// RouteEntry records one emitted route.
type RouteEntry struct {
	Path        string `json:"path"`
	File        string `json:"file"`
	Kind        string `json:"kind"`
	Plugin      string `json:"plugin"`
	DocID       string `json:"doc_id,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Size        int    `json:"size"`
}

// Outputs summarizes the emitted files.
type Outputs struct {
	ContentHash string `json:"content_hash"`
	RouteFiles  int    `json:"route_files"`
	StaticFiles int    `json:"static_files"`
}

// Fingerprint returns the content fingerprint of an output body.
func Fingerprint(body []byte) string {
	return mdfp.CalculateFingerprintFromParts("", string(body))
}

// AddRoute appends a route entry, fingerprinting its output body.
func (m *BuildManifest) AddRoute(path, file, kind, plugin, docID string, body []byte) {
	m.Routes = append(m.Routes, RouteEntry{
		Path:        path,
		File:        file,
		Kind:        kind,
		Plugin:      plugin,
		DocID:       docID,
		Fingerprint: Fingerprint(body),
		Size:        len(body),
	})
}

// Seal sorts the routes and computes the output summary.
func (m *BuildManifest) Seal(staticFiles int) {
	sort.Slice(m.Routes, func(i, j int) bool { return m.Routes[i].File < m.Routes[j].File })
	m.Outputs.RouteFiles = len(m.Routes)
	m.Outputs.StaticFiles = staticFiles
	h := sha256.New()
	for _, r := range m.Routes {
		_, _ = fmt.Fprintf(h, "%s\x00%s\n", r.File, r.Fingerprint)
	}
	m.Outputs.ContentHash = fmt.Sprintf("%x", h.Sum(nil))
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's inputs, plugins and
// content. Two builds with the same hash produced identical sites.
func (m *BuildManifest) Hash() (string, error) {
	hashInput := struct {
		Locale      string   `json:"locale"`
		BaseURL     string   `json:"base_url"`
		ConfigHash  string   `json:"config_hash"`
		Plugins     []string `json:"plugins"`
		ContentHash string   `json:"content_hash"`
	}{
		Locale:      m.Locale,
		BaseURL:     m.BaseURL,
		ConfigHash:  m.Inputs.ConfigHash,
		Plugins:     m.Plugins,
		ContentHash: m.Outputs.ContentHash,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
