package manifest

import (
	"encoding/json"
	"testing"
	"time"
)

func sampleManifest() *BuildManifest {
	m := &BuildManifest{
		ID:        "build-123",
		Locale:    "en",
		BaseURL:   "/av_llm/",
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Inputs: Inputs{
			ConfigPath:   "docsite.yaml",
			ConfigHash:   "config-hash-123",
			SourceCommit: "abc123",
		},
		Plugins:  []string{"content-docs", "content-pages", "theme", "sitemap", "api-reference"},
		Status:   "success",
		Duration: 5000,
	}
	m.AddRoute("/docs/cli", "docs/cli/index.html", "doc", "content-docs", "cli", []byte("<html>cli</html>"))
	m.AddRoute("/", "index.html", "page", "content-pages", "", []byte("<html>home</html>"))
	m.Seal(3)
	return m
}

func TestManifestSerialization(t *testing.T) {
	m := sampleManifest()

	jsonData, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	restored, err := FromJSON(jsonData)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if restored.ID != m.ID {
		t.Errorf("expected ID %s, got %s", m.ID, restored.ID)
	}
	if len(restored.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(restored.Routes))
	}
	if restored.Outputs.ContentHash != m.Outputs.ContentHash {
		t.Errorf("content hash not preserved")
	}
}

func TestSeal(t *testing.T) {
	m := sampleManifest()

	if m.Routes[0].File != "docs/cli/index.html" || m.Routes[1].File != "index.html" {
		t.Errorf("routes not sorted by file: %+v", m.Routes)
	}
	if m.Outputs.RouteFiles != 2 || m.Outputs.StaticFiles != 3 {
		t.Errorf("unexpected outputs: %+v", m.Outputs)
	}
	if len(m.Outputs.ContentHash) != 64 {
		t.Errorf("expected 64-char hex content hash, got %q", m.Outputs.ContentHash)
	}
	if m.Routes[0].Size != len("<html>cli</html>") {
		t.Errorf("unexpected size %d", m.Routes[0].Size)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("<p>a</p>"))
	if a == "" {
		t.Fatal("expected non-empty fingerprint")
	}
	if a != Fingerprint([]byte("<p>a</p>")) {
		t.Error("fingerprint not deterministic")
	}
	if a == Fingerprint([]byte("<p>b</p>")) {
		t.Error("different bodies share a fingerprint")
	}
}

func TestManifestHash(t *testing.T) {
	m1 := sampleManifest()
	m2 := sampleManifest()
	m2.ID = "build-456"
	m2.Timestamp = m2.Timestamp.Add(time.Hour)
	m2.Duration = 1

	hash1, err := m1.Hash()
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	hash2, err := m2.Hash()
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash1 != hash2 {
		t.Errorf("expected identical hashes for identical content, got %s and %s", hash1, hash2)
	}

	m3 := sampleManifest()
	m3.AddRoute("/about", "about/index.html", "page", "content-pages", "", []byte("about"))
	m3.Seal(3)
	hash3, _ := m3.Hash()
	if hash1 == hash3 {
		t.Error("expected different hashes when content changes")
	}

	m4 := sampleManifest()
	m4.Plugins = m4.Plugins[:4]
	hash4, _ := m4.Hash()
	if hash1 == hash4 {
		t.Error("expected different hashes when plugins change")
	}
}

func TestManifestJSONStructure(t *testing.T) {
	jsonData, err := sampleManifest().ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(jsonData, &parsed); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	for _, field := range []string{"id", "locale", "base_url", "timestamp", "inputs", "plugins", "routes", "outputs", "status", "duration_ms"} {
		if _, ok := parsed[field]; !ok {
			t.Errorf("missing required field: %s", field)
		}
	}
	if _, ok := parsed["warnings"]; ok {
		t.Error("warnings should be omitted when empty")
	}
}
